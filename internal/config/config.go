package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the full bot configuration, loaded from environment variables
// (optionally seeded from a .env file, see LoadDotEnv).
type Settings struct {
	// Companion-radio bridge.
	BridgeURL string

	// Node directory (map API).
	MapAPIBase   string
	DirectoryTTL time.Duration

	// LLM backend (OpenAI-compatible).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Bot identity and trigger rules.
	BotName         string
	MentionPattern  string // optional override for the mention regexp
	KeywordChannels []int

	// Follow-up conversation window.
	ConversationWindow time.Duration

	// Scheduled status broadcasts. BroadcastChannel < 0 disables them.
	BroadcastChannel int
	BroadcastHours   []int

	// Stats database. Empty disables stats tracking.
	StatsDBPath string

	// ChannelNames maps channel indices to display names for logs.
	ChannelNames map[int]string
}

const (
	DefaultMapAPIBase   = "https://map.meshcore.dev/api/v1"
	DefaultLLMBaseURL   = "https://api.openai.com/v1"
	DefaultLLMModel     = "gpt-4o-mini"
	DefaultBotName      = "Jeff"
	DefaultBridgeURL    = "ws://localhost:5000/events"
	DefaultStatsDBPath  = "/var/tmp/meshbot_stats.db"
	DefaultDirectoryTTL = time.Hour
	DefaultWindow       = 5 * time.Minute
)

var defaultKeywordChannels = []int{1, 5, 6} // #sydney, #rolojnr, #test

var defaultChannelNames = map[int]string{
	0: "Public",
	1: "#sydney",
	2: "#nsw",
	3: "#emergency",
	4: "#nepean",
	5: "#rolojnr",
	6: "#test",
}

var defaultBroadcastHours = []int{0, 6, 12, 18}

// FromEnv builds Settings from environment variables, applying defaults for
// everything except the LLM API key, which has no safe default.
func FromEnv() (Settings, error) {
	s := Settings{
		BridgeURL:          envOr("MESHCORE_BRIDGE_URL", DefaultBridgeURL),
		MapAPIBase:         strings.TrimRight(envOr("MAP_API_BASE", DefaultMapAPIBase), "/"),
		DirectoryTTL:       DefaultDirectoryTTL,
		LLMBaseURL:         strings.TrimRight(envOr("LLM_BASE_URL", DefaultLLMBaseURL), "/"),
		LLMAPIKey:          strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		LLMModel:           envOr("LLM_MODEL", DefaultLLMModel),
		BotName:            envOr("BOT_NAME", DefaultBotName),
		MentionPattern:     strings.TrimSpace(os.Getenv("BOT_MENTION_PATTERN")),
		KeywordChannels:    defaultKeywordChannels,
		ConversationWindow: DefaultWindow,
		BroadcastChannel:   -1,
		BroadcastHours:     defaultBroadcastHours,
		StatsDBPath:        envOr("STATS_DB_PATH", DefaultStatsDBPath),
		ChannelNames:       defaultChannelNames,
	}

	if v := strings.TrimSpace(os.Getenv("DIRECTORY_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid DIRECTORY_TTL %q: %w", v, err)
		}
		s.DirectoryTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("CONVERSATION_WINDOW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid CONVERSATION_WINDOW %q: %w", v, err)
		}
		s.ConversationWindow = d
	}
	if v := strings.TrimSpace(os.Getenv("KEYWORD_CHANNELS")); v != "" {
		chans, err := parseIntList(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid KEYWORD_CHANNELS %q: %w", v, err)
		}
		s.KeywordChannels = chans
	}
	if v := strings.TrimSpace(os.Getenv("BROADCAST_CHANNEL")); v != "" {
		ch, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid BROADCAST_CHANNEL %q: %w", v, err)
		}
		s.BroadcastChannel = ch
	}
	if v := strings.TrimSpace(os.Getenv("BROADCAST_HOURS")); v != "" {
		hours, err := parseIntList(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid BROADCAST_HOURS %q: %w", v, err)
		}
		for _, h := range hours {
			if h < 0 || h > 23 {
				return Settings{}, fmt.Errorf("invalid BROADCAST_HOURS %q: hour %d out of range", v, h)
			}
		}
		s.BroadcastHours = hours
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the fields that have no usable default.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.BridgeURL) == "" {
		return fmt.Errorf("config incomplete: MESHCORE_BRIDGE_URL is required")
	}
	if strings.TrimSpace(s.LLMAPIKey) == "" {
		return fmt.Errorf("config incomplete: LLM_API_KEY is required")
	}
	if strings.TrimSpace(s.BotName) == "" {
		return fmt.Errorf("config incomplete: BOT_NAME must not be blank")
	}
	return nil
}

// KeywordChannelSet returns the keyword-eligible channels as a set.
func (s Settings) KeywordChannelSet() map[int]struct{} {
	out := make(map[int]struct{}, len(s.KeywordChannels))
	for _, ch := range s.KeywordChannels {
		out[ch] = struct{}{}
	}
	return out
}

// ChannelName returns the display name for a channel index.
func (s Settings) ChannelName(ch int) string {
	if name, ok := s.ChannelNames[ch]; ok {
		return name
	}
	return fmt.Sprintf("ch%d", ch)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseIntList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
