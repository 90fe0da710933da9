package trigger

import (
	"regexp"
	"strings"
)

// Node-question detection mirrors how operators actually ask on air:
// "what freq is prospect rpt", "who owns f3a9", "node 33?". A message is a
// node query only when it carries one of these keywords; the search text is
// then extracted by pattern, falling back to the leftover words.
var nodeQueryKeywords = map[string]struct{}{
	"rpt": {}, "repeater": {}, "node": {},
	"frequency": {}, "freq": {},
	"owner": {}, "owns": {}, "who": {},
}

var (
	// "node 33", "rpt is f3a9", "repeater number 0b77"
	hexAfterKeyword = regexp.MustCompile(`(?:node|rpt|repeater)\s+(?:is\s+|number\s+)?([0-9a-f]{2,4})\b`)
	// "prospect rpt", "guildford west repeater"
	nameBeforeKeyword = regexp.MustCompile(`([a-z0-9][a-z0-9\s\-_]*?)\s+(?:rpt|repeater|node)\b`)
	// "who owns westmead", "owner of prospect"
	ownerQuery = regexp.MustCompile(`(?:owns|owner of)\s+(?:the\s+)?([a-z0-9][a-z0-9\s\-_]*)`)
)

// Filler words stripped from extracted search text so "the prospect rpt"
// searches for "prospect".
var fillerWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "of": {}, "on": {}, "for": {},
	"what": {}, "whats": {}, "where": {}, "wheres": {}, "which": {},
	"whos": {}, "does": {}, "do": {}, "tell": {}, "me": {},
	"about": {}, "please": {}, "that": {}, "this": {}, "there": {},
	"near": {}, "any": {}, "in": {}, "at": {}, "up": {},
}

// extractNodeQuery reports whether text is a directory question and, if so,
// the search text to look up.
func extractNodeQuery(text string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	lowered = strings.Trim(lowered, "?!.,")
	if lowered == "" {
		return "", false
	}

	keyword := false
	for _, w := range strings.Fields(lowered) {
		if _, ok := nodeQueryKeywords[strings.Trim(w, "?!.,")]; ok {
			keyword = true
			break
		}
	}
	if !keyword {
		return "", false
	}

	if m := hexAfterKeyword.FindStringSubmatch(lowered); m != nil {
		return m[1], true
	}
	if m := nameBeforeKeyword.FindStringSubmatch(lowered); m != nil {
		if name := dropFiller(m[1]); name != "" {
			return name, true
		}
	}
	if m := ownerQuery.FindStringSubmatch(lowered); m != nil {
		if name := dropFiller(m[1]); name != "" {
			return name, true
		}
	}

	// Last resort: whatever meaningful words remain, capped at three.
	var rest []string
	for _, w := range strings.Fields(lowered) {
		w = strings.Trim(w, "?!.,")
		if _, kw := nodeQueryKeywords[w]; kw {
			continue
		}
		if _, filler := fillerWords[w]; filler {
			continue
		}
		rest = append(rest, w)
		if len(rest) == 3 {
			break
		}
	}
	if len(rest) == 0 {
		return "", false
	}
	return strings.Join(rest, " "), true
}

// dropFiller removes filler and question keywords so "the prospect" and
// "what freq is prospect" both search for "prospect".
func dropFiller(s string) string {
	var kept []string
	for _, w := range strings.Fields(strings.TrimSpace(s)) {
		if _, ok := fillerWords[w]; ok {
			continue
		}
		if _, ok := nodeQueryKeywords[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
