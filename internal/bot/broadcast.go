package bot

import (
	"context"
	"log"

	"github.com/THOM-AwS/meshcore-bot/internal/gateway"
	"github.com/THOM-AwS/meshcore-bot/internal/textutil"
	"github.com/THOM-AwS/meshcore-bot/internal/trigger"
)

// emptyMessage stands in for the triggering message on scheduled sends.
func emptyMessage() *gateway.ChannelMessage { return &gateway.ChannelMessage{} }

// maybeBroadcast posts the status line on the configured channel at the top
// of each scheduled hour, at most once per hour. It is a no-op until the
// first bridge session has been established.
func (r *Runner) maybeBroadcast(ctx context.Context) {
	send := r.currentSend()
	if send == nil {
		return
	}

	// The tick loop drifts by the cost of each pass, so accept the first
	// two minutes of the hour rather than minute zero exactly.
	now := r.now()
	if !containsInt(r.cfg.BroadcastHours, now.Hour()) || now.Minute() > 1 {
		return
	}

	slot := now.Format("2006-01-02T15")
	r.lastBroadcastMu.Lock()
	if r.lastBroadcast == slot {
		r.lastBroadcastMu.Unlock()
		return
	}
	r.lastBroadcast = slot
	r.lastBroadcastMu.Unlock()

	status := r.router.Respond(ctx, trigger.Decision{Kind: trigger.FixedCommand, Command: "status"}, emptyMessage())
	if status == "" {
		return
	}
	out := r.cfg.BotName + ": " + status
	if err := send(out, r.cfg.BroadcastChannel); err != nil {
		log.Printf("%s broadcast failed: channel=%d err=%v", logPrefix, r.cfg.BroadcastChannel, err)
		return
	}
	log.Printf("%s broadcast: channel=%s text=%q",
		logPrefix, r.cfg.ChannelName(r.cfg.BroadcastChannel), textutil.PreviewString(out, contentPreviewLen))
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
