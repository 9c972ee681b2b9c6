package store

import (
	"context"

	"ballotbox/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement sent to a SQL backend
type QueryEvent struct {
	Backend   string
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives a QueryEvent after each statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that always prints SQL when LogSQL is on,
// independent of the process-wide root level
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel)}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if ev.Err != nil {
		evt = z.log.Error()
	}
	// args stay out of the log: profile upserts carry email addresses
	evt.Str("backend", ev.Backend).
		Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Err(ev.Err).
		Msg("sql query")
}

// compact folds runs of whitespace into single spaces
func compact(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !space {
				out = append(out, ' ')
				space = true
			}
			continue
		}
		space = false
		out = append(out, r)
	}
	return string(out)
}
