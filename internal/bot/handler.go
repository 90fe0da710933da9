package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/THOM-AwS/meshcore-bot/internal/gateway"
	"github.com/THOM-AwS/meshcore-bot/internal/router"
	"github.com/THOM-AwS/meshcore-bot/internal/textutil"
	"github.com/THOM-AwS/meshcore-bot/internal/trigger"
)

// handleEvent is the bridge event sink. Classification errors never tear the
// connection down; only write failures do, so the reconnect loop can redial.
func (r *Runner) handleEvent(ctx context.Context, ev gateway.Event, send gateway.SendFunc) error {
	r.setSend(send)

	if ev.Type != gateway.EventChannelMessage || ev.Message == nil {
		return nil
	}
	return r.handleChannelMessage(ctx, ev.Message, send)
}

func (r *Runner) handleChannelMessage(ctx context.Context, msg *gateway.ChannelMessage, send gateway.SendFunc) error {
	if r.isOwnMessage(msg) {
		return nil
	}
	if r.isDuplicate(msg) {
		return nil
	}

	r.stats.RecordMessage(msg.SenderID, msg.Channel)
	r.stats.RecordPath(msg.Path, msg.SNR, msg.HasSNR, msg.RSSI, msg.HasRSSI)

	d := r.classifier.Classify(trigger.Message{
		SenderID: msg.SenderID,
		Channel:  msg.Channel,
		Text:     msg.Text,
	})
	if d.Kind == trigger.NoTrigger {
		return nil
	}

	log.Printf("%s triggered: kind=%s sender=%s channel=%s text=%q",
		logPrefix, d.Kind, msg.SenderID, r.cfg.ChannelName(msg.Channel),
		textutil.PreviewString(msg.Text, contentPreviewLen))

	reply := r.router.Respond(ctx, d, msg)
	if strings.TrimSpace(reply) == "" {
		return nil
	}

	out := textutil.Truncate(r.cfg.BotName+": "+reply, router.MaxMessageChars)
	if err := send(out, msg.Channel); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	log.Printf("%s replied: sender=%s channel=%s reply=%q",
		logPrefix, msg.SenderID, r.cfg.ChannelName(msg.Channel),
		textutil.PreviewString(out, contentPreviewLen))

	switch d.Kind {
	case trigger.FixedCommand:
		r.stats.RecordCommand(d.Command, msg.SenderID)
	case trigger.NodeQuery, trigger.FreeFormQuestion:
		// Question paths open the follow-up window; commands do not.
		r.conv.Record(msg.SenderID, msg.Channel, reply, questionText(d, msg))
	}
	return nil
}

func questionText(d trigger.Decision, msg *gateway.ChannelMessage) string {
	switch d.Kind {
	case trigger.FreeFormQuestion:
		return d.Question
	case trigger.NodeQuery:
		return d.Search
	default:
		return msg.Text
	}
}

// isOwnMessage drops frames that echo the bot's own transmissions back.
func (r *Runner) isOwnMessage(msg *gateway.ChannelMessage) bool {
	return strings.EqualFold(msg.SenderName(), r.cfg.BotName)
}

// isDuplicate suppresses multi-path re-deliveries of the same packet. Only a
// repeat inside duplicateWindow counts: a sender re-issuing the same text
// later gets answered again. The seen set is bounded; once full it drops its
// older half.
func (r *Runner) isDuplicate(msg *gateway.ChannelMessage) bool {
	key := fmt.Sprintf("%s|%d|%s", msg.SenderID, msg.Channel, msg.Text)

	r.seenMu.Lock()
	defer r.seenMu.Unlock()

	if at, ok := r.seen[key]; ok {
		if age := msg.ReceivedAt.Sub(at); age >= 0 && age <= duplicateWindow {
			return true
		}
		// Stale entry: refresh in place, it is already in the trim order.
		r.seen[key] = msg.ReceivedAt
		return false
	}
	r.seen[key] = msg.ReceivedAt
	r.seenFI = append(r.seenFI, key)
	if len(r.seenFI) > seenMax {
		drop := r.seenFI[:len(r.seenFI)-seenKeep]
		for _, k := range drop {
			delete(r.seen, k)
		}
		r.seenFI = append([]string(nil), r.seenFI[len(r.seenFI)-seenKeep:]...)
	}
	return false
}
