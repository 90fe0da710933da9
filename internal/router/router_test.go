package router

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/THOM-AwS/meshcore-bot/internal/conversation"
	"github.com/THOM-AwS/meshcore-bot/internal/directory"
	"github.com/THOM-AwS/meshcore-bot/internal/gateway"
	"github.com/THOM-AwS/meshcore-bot/internal/llm"
	"github.com/THOM-AwS/meshcore-bot/internal/trigger"
)

type fakeDirectory struct {
	nodes map[string]directory.NodeRecord
	top   []directory.NodeRecord
}

func (f *fakeDirectory) Lookup(ctx context.Context, query string) (directory.NodeRecord, bool) {
	n, ok := f.nodes[strings.ToLower(strings.TrimSpace(query))]
	return n, ok
}

func (f *fakeDirectory) TopNodes(ctx context.Context, region directory.Region, n int) []directory.NodeRecord {
	if len(f.top) > n {
		return f.top[:n]
	}
	return f.top
}

func (f *fakeDirectory) ActiveCounts(ctx context.Context, region directory.Region, within time.Duration) (int, int) {
	if region == directory.RegionMetro {
		return 42, 7
	}
	return 61, 12
}

type fakeBackend struct {
	lastReq llm.Request
	reply   string
	err     error
}

func (f *fakeBackend) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.reply, f.err
}

func testMessage() *gateway.ChannelMessage {
	return &gateway.ChannelMessage{
		SenderID:   "f3a9",
		Channel:    1,
		Text:       "Westmead: jeff test",
		SNR:        8.5,
		HasSNR:     true,
		RSSI:       -92,
		HasRSSI:    true,
		Path:       []string{"a1", "b2"},
		ReceivedAt: time.Date(2026, 8, 20, 2, 15, 42, 0, time.UTC),
	}
}

func newTestRouter(backend llm.Backend) (*Router, *fakeDirectory) {
	dir := &fakeDirectory{
		nodes: map[string]directory.NodeRecord{
			"a1":       {Name: "Prospect RPT", PublicKey: "a1ffee", Type: directory.TypeRepeater},
			"westmead": {Name: "Westmead", PublicKey: "0b77de", Type: directory.TypeCompanion, FreqMHz: 915.8, SF: 11},
		},
	}
	return New(dir, backend, conversation.NewTracker(0), "[test]"), dir
}

func TestRespondTestCommand(t *testing.T) {
	r, _ := newTestRouter(&fakeBackend{})
	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FixedCommand, Command: "test"}, testMessage())
	want := "ack Westmead | Prospect RPT > b2 | SNR: 8.5 dB | RSSI: -92 dBm | Received at: 02:15:42"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRespondPing(t *testing.T) {
	r, _ := newTestRouter(&fakeBackend{})
	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FixedCommand, Command: "ping"}, testMessage())
	if got != "pong | SNR: 8.5 dB | RSSI: -92 dBm" {
		t.Fatalf("unexpected ping reply: %q", got)
	}

	bare := &gateway.ChannelMessage{SenderID: "f3a9", Channel: 1, Text: "hi"}
	got = r.Respond(context.Background(), trigger.Decision{Kind: trigger.FixedCommand, Command: "ping"}, bare)
	if got != "pong" {
		t.Fatalf("expected bare pong without signal data, got %q", got)
	}
}

func TestRespondStatus(t *testing.T) {
	r, _ := newTestRouter(&fakeBackend{})
	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FixedCommand, Command: "status"}, testMessage())
	want := "Online | Sydney: 42 companions, 7 repeaters | NSW: 61 companions, 12 repeaters"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRespondPathDirect(t *testing.T) {
	r, _ := newTestRouter(&fakeBackend{})
	msg := &gateway.ChannelMessage{SenderID: "f3a9", Channel: 1}
	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FixedCommand, Command: "path"}, msg)
	if got != "Direct (0 hops)" {
		t.Fatalf("unexpected path reply: %q", got)
	}
}

func TestRespondPathResolvesHopNames(t *testing.T) {
	r, _ := newTestRouter(&fakeBackend{})
	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FixedCommand, Command: "path"}, testMessage())
	if !strings.HasPrefix(got, "Path (2 hops): Prospect RPT > b2") {
		t.Fatalf("unexpected path reply: %q", got)
	}
}

func TestRespondNodeQuery(t *testing.T) {
	r, _ := newTestRouter(&fakeBackend{})

	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.NodeQuery, Search: "westmead"}, testMessage())
	if !strings.HasPrefix(got, "Westmead(Node)") {
		t.Fatalf("expected summary line, got %q", got)
	}

	got = r.Respond(context.Background(), trigger.Decision{Kind: trigger.NodeQuery, Search: "blacktown"}, testMessage())
	if got != "No match for 'blacktown'" {
		t.Fatalf("unexpected miss reply: %q", got)
	}
}

func TestRespondFreeFormBundlesContext(t *testing.T) {
	backend := &fakeBackend{reply: "SF11 on 915.8MHz"}
	r, dir := newTestRouter(backend)
	for i := 0; i < 40; i++ {
		dir.top = append(dir.top, directory.NodeRecord{Name: fmt.Sprintf("Node %02d", i)})
	}

	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FreeFormQuestion, Question: "what sf does sydney use"}, testMessage())
	if got != "SF11 on 915.8MHz" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if len(backend.lastReq.NodeContext) != contextNodeLimit {
		t.Fatalf("expected node context capped at %d, got %d", contextNodeLimit, len(backend.lastReq.NodeContext))
	}
	if backend.lastReq.Signal == "" || !strings.Contains(backend.lastReq.Signal, "SNR: 8.5 dB") {
		t.Fatalf("expected signal metadata in request, got %q", backend.lastReq.Signal)
	}
}

func TestRespondFollowUpCarriesPriorExchange(t *testing.T) {
	backend := &fakeBackend{reply: "BW250"}
	r, _ := newTestRouter(backend)
	r.conv.Record("f3a9", 1, "SF11 in sydney", "what sf does sydney use")

	d := trigger.Decision{Kind: trigger.FreeFormQuestion, Question: "and the bandwidth?", IsFollowUp: true}
	if got := r.Respond(context.Background(), d, testMessage()); got != "BW250" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if backend.lastReq.PriorResponse != "SF11 in sydney" {
		t.Fatalf("expected prior response in request, got %q", backend.lastReq.PriorResponse)
	}
	if len(backend.lastReq.History) != 1 {
		t.Fatalf("expected history in request, got %v", backend.lastReq.History)
	}
}

func TestRespondLLMFailureNeverSilent(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("upstream 503")}
	r, _ := newTestRouter(backend)

	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FreeFormQuestion, Question: "q"}, testMessage())
	if got != llmUnavailableNotice {
		t.Fatalf("expected fixed notice, got %q", got)
	}
}

func TestRespondTruncatesLongReplies(t *testing.T) {
	backend := &fakeBackend{reply: strings.Repeat("长话短说 ", 120)}
	r, _ := newTestRouter(backend)

	got := r.Respond(context.Background(), trigger.Decision{Kind: trigger.FreeFormQuestion, Question: "q"}, testMessage())
	if n := utf8.RuneCountInString(got); n > MaxMessageChars {
		t.Fatalf("reply exceeds limit: %d runes", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got[len(got)-12:])
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune")
	}
}

func TestRespondNeverEmptyForTriggered(t *testing.T) {
	r, _ := newTestRouter(&fakeBackend{err: fmt.Errorf("down")})
	decisions := []trigger.Decision{
		{Kind: trigger.FixedCommand, Command: "help"},
		{Kind: trigger.NodeQuery, Search: "nothing here"},
		{Kind: trigger.FreeFormQuestion, Question: "q"},
	}
	for _, d := range decisions {
		if got := r.Respond(context.Background(), d, testMessage()); strings.TrimSpace(got) == "" {
			t.Fatalf("empty reply for %v", d.Kind)
		}
	}
}
