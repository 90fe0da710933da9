package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")

	s, err := FromEnv()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if s.BotName != DefaultBotName {
		t.Fatalf("expected bot name %q, got %q", DefaultBotName, s.BotName)
	}
	if s.DirectoryTTL != time.Hour {
		t.Fatalf("expected 1h TTL, got %s", s.DirectoryTTL)
	}
	if s.ConversationWindow != 5*time.Minute {
		t.Fatalf("expected 5m window, got %s", s.ConversationWindow)
	}
	set := s.KeywordChannelSet()
	for _, ch := range []int{1, 5, 6} {
		if _, ok := set[ch]; !ok {
			t.Fatalf("expected channel %d in keyword set", ch)
		}
	}
	if s.BroadcastChannel != -1 {
		t.Fatalf("expected broadcasts disabled by default, got channel %d", s.BroadcastChannel)
	}
}

func TestFromEnvMissingAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for missing LLM_API_KEY")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("KEYWORD_CHANNELS", "2, 3")
	t.Setenv("DIRECTORY_TTL", "30m")
	t.Setenv("BROADCAST_CHANNEL", "7")
	t.Setenv("BROADCAST_HOURS", "6,18")
	t.Setenv("LLM_BASE_URL", "https://openrouter.ai/api/v1/")

	s, err := FromEnv()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(s.KeywordChannels) != 2 || s.KeywordChannels[0] != 2 || s.KeywordChannels[1] != 3 {
		t.Fatalf("unexpected keyword channels: %v", s.KeywordChannels)
	}
	if s.DirectoryTTL != 30*time.Minute {
		t.Fatalf("expected 30m TTL, got %s", s.DirectoryTTL)
	}
	if s.BroadcastChannel != 7 {
		t.Fatalf("expected broadcast channel 7, got %d", s.BroadcastChannel)
	}
	if len(s.BroadcastHours) != 2 {
		t.Fatalf("unexpected broadcast hours: %v", s.BroadcastHours)
	}
	if s.LLMBaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", s.LLMBaseURL)
	}
}

func TestFromEnvBadValues(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")

	cases := []struct{ key, val string }{
		{"DIRECTORY_TTL", "soon"},
		{"KEYWORD_CHANNELS", "one,two"},
		{"BROADCAST_CHANNEL", "x"},
		{"BROADCAST_HOURS", "25"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestChannelName(t *testing.T) {
	s := Settings{ChannelNames: map[int]string{1: "#sydney"}}
	if got := s.ChannelName(1); got != "#sydney" {
		t.Fatalf("expected #sydney, got %q", got)
	}
	if got := s.ChannelName(9); got != "ch9" {
		t.Fatalf("expected ch9, got %q", got)
	}
}
