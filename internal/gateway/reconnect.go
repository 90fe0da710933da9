package gateway

import (
	"context"
	"time"

	"github.com/THOM-AwS/meshcore-bot/internal/syncx"
)

type ReconnectOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	OnDisconnect   func(err error, nextBackoff time.Duration)
}

func (o ReconnectOptions) withDefaults() ReconnectOptions {
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
	return o
}

// RunBridgeWithReconnect keeps one bridge session alive, redialing with
// exponential backoff until ctx is canceled. The backoff doubles per
// disconnect up to MaxBackoff and is never reset mid-run.
func RunBridgeWithReconnect(ctx context.Context, wsURL string, handler EventHandler, opts Options, reconnect ReconnectOptions) error {
	reconnect = reconnect.withDefaults()
	backoff := reconnect.InitialBackoff

	for ctx.Err() == nil {
		err := RunBridgeOnce(ctx, wsURL, handler, opts)
		if ctx.Err() != nil {
			break
		}

		if reconnect.OnDisconnect != nil {
			reconnect.OnDisconnect(err, backoff)
		}
		if !syncx.Sleep(ctx, backoff) {
			break
		}
		if backoff *= 2; backoff > reconnect.MaxBackoff {
			backoff = reconnect.MaxBackoff
		}
	}
	return ctx.Err()
}
