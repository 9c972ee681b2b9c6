package repokit

import (
	"context"
	"time"

	perr "ballotbox/internal/platform/errors"
)

// Pinger is any dependency that can report readiness
type Pinger interface {
	Ping(context.Context) error
}

// DefaultPingTimeout bounds Ping when ctx carries no deadline
const DefaultPingTimeout = 5 * time.Second

// Ping checks a dependency answers within timeout
// failures come back as unavailable so the caller can stop before any write
func Ping(ctx context.Context, name string, p Pinger) error {
	if p == nil {
		return perr.Newf(perr.ErrorCodeUnavailable, "%s: nil dependency", name)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
	}
	if err := p.Ping(ctx); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s ping failed", name)
	}
	return nil
}

// PingAny pings q when it can answer, no-op otherwise
func PingAny(ctx context.Context, name string, q any) error {
	p, ok := q.(Pinger)
	if !ok {
		return nil
	}
	return Ping(ctx, name, p)
}
