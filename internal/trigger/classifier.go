// Package trigger decides whether an inbound mesh message warrants a
// response and by which route. Classification is pure apart from the
// follow-up lookup; it never blocks.
package trigger

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tags the classification outcome.
type Kind int

const (
	NoTrigger Kind = iota
	FixedCommand
	NodeQuery
	FreeFormQuestion
)

func (k Kind) String() string {
	switch k {
	case NoTrigger:
		return "none"
	case FixedCommand:
		return "command"
	case NodeQuery:
		return "node-query"
	case FreeFormQuestion:
		return "question"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Decision is produced once per inbound message and never persisted.
type Decision struct {
	Kind       Kind
	Command    string // canonical command name when Kind == FixedCommand
	Search     string // search text when Kind == NodeQuery
	Question   string // cleaned text when Kind == FreeFormQuestion
	IsFollowUp bool
}

// Message is the classifier's view of one inbound event.
type Message struct {
	SenderID string
	Channel  int
	Text     string
}

// FollowUpFunc reports whether the sender has a live conversation entry on
// the given channel.
type FollowUpFunc func(senderID string, channel int) bool

// Classifier applies the trigger rules in fixed priority order: blank text
// never triggers; a name mention always triggers; keyword and node-question
// matching apply only on eligible channels; a live follow-up entry catches
// everything else. A fixed command always wins over the LLM path.
type Classifier struct {
	mention         *regexp.Regexp
	keywordChannels map[int]struct{}
	commands        map[string]string // trigger word -> canonical name
	followUp        FollowUpFunc
}

// NewClassifier builds a classifier for botName. mentionPattern overrides the
// default word-bounded, sigil-optional, case-insensitive mention rule when
// non-empty. commands maps trigger words (including aliases) to canonical
// command names.
func NewClassifier(botName, mentionPattern string, keywordChannels map[int]struct{}, commands map[string]string, followUp FollowUpFunc) (*Classifier, error) {
	pattern := mentionPattern
	if strings.TrimSpace(pattern) == "" {
		pattern = `(?i)(^|[^0-9A-Za-z_])[@#]?` + regexp.QuoteMeta(strings.TrimSpace(botName)) + `($|[^0-9A-Za-z_])`
	}
	mention, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid mention pattern %q: %w", pattern, err)
	}

	cmds := make(map[string]string, len(commands))
	for word, name := range commands {
		cmds[strings.ToLower(strings.TrimSpace(word))] = name
	}

	if followUp == nil {
		followUp = func(string, int) bool { return false }
	}

	return &Classifier{
		mention:         mention,
		keywordChannels: keywordChannels,
		commands:        cmds,
		followUp:        followUp,
	}, nil
}

// Classify maps one inbound message to one decision. First match wins.
func (c *Classifier) Classify(msg Message) Decision {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Decision{Kind: NoTrigger}
	}

	// Channel messages arrive as "NodeName: text"; trigger rules apply to
	// the part after the sender prefix.
	payload := text
	if i := strings.Index(payload, ":"); i >= 0 {
		payload = strings.TrimSpace(payload[i+1:])
	}
	if payload == "" {
		return Decision{Kind: NoTrigger}
	}

	// Rule 1: name mention triggers on any channel.
	if c.mention.MatchString(payload) {
		remainder := strings.TrimSpace(c.mention.ReplaceAllString(payload, "$1$2"))
		if cmd, ok := c.matchCommandWord(remainder); ok {
			return Decision{Kind: FixedCommand, Command: cmd}
		}
		if search, ok := extractNodeQuery(remainder); ok {
			return Decision{Kind: NodeQuery, Search: search}
		}
		q := remainder
		if q == "" {
			q = payload
		}
		return Decision{Kind: FreeFormQuestion, Question: q}
	}

	// Rules 2a/2b: keyword-eligible channels.
	if _, eligible := c.keywordChannels[msg.Channel]; eligible {
		if cmd, ok := c.commands[strings.ToLower(payload)]; ok {
			return Decision{Kind: FixedCommand, Command: cmd}
		}
		if search, ok := extractNodeQuery(payload); ok {
			return Decision{Kind: NodeQuery, Search: search}
		}
	}

	// Rule 3: live follow-up window.
	if c.followUp(msg.SenderID, msg.Channel) {
		return Decision{Kind: FreeFormQuestion, Question: payload, IsFollowUp: true}
	}

	return Decision{Kind: NoTrigger}
}

// matchCommandWord reports a command when any whole word of the remainder is
// a recognized trigger word. Fixed commands take precedence over the LLM
// path whenever both could apply.
func (c *Classifier) matchCommandWord(remainder string) (string, bool) {
	for _, w := range strings.Fields(strings.ToLower(remainder)) {
		if cmd, ok := c.commands[strings.Trim(w, "?!.,")]; ok {
			return cmd, true
		}
	}
	return "", false
}
