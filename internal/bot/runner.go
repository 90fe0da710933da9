// Package bot wires the directory cache, trigger classifier, response router
// and bridge session into one long-running service.
package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/THOM-AwS/meshcore-bot/internal/config"
	"github.com/THOM-AwS/meshcore-bot/internal/conversation"
	"github.com/THOM-AwS/meshcore-bot/internal/directory"
	"github.com/THOM-AwS/meshcore-bot/internal/gateway"
	"github.com/THOM-AwS/meshcore-bot/internal/llm"
	"github.com/THOM-AwS/meshcore-bot/internal/router"
	"github.com/THOM-AwS/meshcore-bot/internal/stats"
	"github.com/THOM-AwS/meshcore-bot/internal/syncx"
	"github.com/THOM-AwS/meshcore-bot/internal/trigger"
)

type Runner struct {
	cfg config.Settings

	dir        *directory.Cache
	conv       *conversation.Tracker
	classifier *trigger.Classifier
	router     *router.Router
	stats      *stats.Tracker

	seenMu sync.Mutex
	seen   map[string]time.Time // key -> when first seen
	seenFI []string             // insertion order, for trimming

	sendMu sync.RWMutex
	send   gateway.SendFunc

	lastBroadcastMu sync.Mutex
	lastBroadcast   string

	now func() time.Time
}

func NewRunner(cfg config.Settings) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir := directory.NewCache(directory.NewClient(cfg.MapAPIBase, logPrefix), cfg.DirectoryTTL, logPrefix)
	conv := conversation.NewTracker(cfg.ConversationWindow)
	backend := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	r := &Runner{
		cfg:    cfg,
		dir:    dir,
		conv:   conv,
		router: router.New(dir, backend, conv, logPrefix),
		seen:   map[string]time.Time{},
		now:    time.Now,
	}

	classifier, err := trigger.NewClassifier(
		cfg.BotName, cfg.MentionPattern, cfg.KeywordChannelSet(), router.Commands(),
		func(senderID string, channel int) bool {
			_, ok := conv.FollowUpContext(senderID, channel)
			return ok
		},
	)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	r.classifier = classifier

	if cfg.StatsDBPath != "" {
		tracker, err := stats.Open(cfg.StatsDBPath, logPrefix)
		if err != nil {
			// Stats are best effort; the bot runs without them.
			log.Printf("%s stats disabled: %v", logPrefix, err)
		} else {
			r.stats = tracker
		}
	}

	return r, nil
}

// Run blocks until ctx is canceled, keeping the bridge session, the
// directory cache and the broadcast schedule alive.
func (r *Runner) Run(ctx context.Context) error {
	log.Printf("%s starting: name=%q bridge=%s map=%s", logPrefix, r.cfg.BotName, r.cfg.BridgeURL, r.cfg.MapAPIBase)
	defer r.stats.Close()

	g := syncx.NewGroup(ctx)

	g.Go(func(ctx context.Context) {
		syncx.RunInterval(ctx, directoryWarmInterval, true, func(ctx context.Context) {
			r.dir.RefreshIfStale(ctx)
		})
	})

	if r.cfg.BroadcastChannel >= 0 {
		g.Go(func(ctx context.Context) {
			syncx.RunInterval(ctx, broadcastTick, false, func(ctx context.Context) {
				r.maybeBroadcast(ctx)
			})
		})
	}

	g.Go(func(ctx context.Context) {
		err := gateway.RunBridgeWithReconnect(ctx, r.cfg.BridgeURL, r.handleEvent, gateway.Options{}, gateway.ReconnectOptions{
			OnDisconnect: func(err error, next time.Duration) {
				log.Printf("%s bridge disconnected, retrying in %s: %v", logPrefix, next, err)
			},
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("%s bridge loop exited: %v", logPrefix, err)
		}
	})

	g.Wait()
	log.Printf("%s stopped", logPrefix)
	return ctx.Err()
}

func (r *Runner) setSend(send gateway.SendFunc) {
	r.sendMu.Lock()
	r.send = send
	r.sendMu.Unlock()
}

func (r *Runner) currentSend() gateway.SendFunc {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()
	return r.send
}
