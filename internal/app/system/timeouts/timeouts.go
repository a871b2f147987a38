// Package timeouts provides the deadlines handlers and jobs put on their
// database work.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, negotiation steps
//   - Long: pairing generation, multi-collection writes
//   - Batch: scheduled sweeps over many pairs
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults are used until Configure is called.
var Defaults = Config{
	Ping:   2 * time.Second,
	Short:  5 * time.Second,
	Medium: 10 * time.Second,
	Long:   30 * time.Second,
	Batch:  2 * time.Minute,
}

var current atomic.Pointer[Config]

func init() { Reset() }

func get() *Config { return current.Load() }

func Ping() time.Duration   { return get().Ping }
func Short() time.Duration  { return get().Short }
func Medium() time.Duration { return get().Medium }
func Long() time.Duration   { return get().Long }
func Batch() time.Duration  { return get().Batch }

// Configure overrides the non-zero fields of cfg. Call it at startup before
// handlers are built.
func Configure(cfg Config) {
	next := *get()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&next.Ping, cfg.Ping)
	set(&next.Short, cfg.Short)
	set(&next.Medium, cfg.Medium)
	set(&next.Long, cfg.Long)
	set(&next.Batch, cfg.Batch)
	current.Store(&next)
}

// Reset restores Defaults.
func Reset() {
	d := Defaults
	current.Store(&d)
}

// Current returns a copy of the active values.
func Current() Config { return *get() }

// WithTimeout is context.WithTimeout whose cancel func logs a warning when the
// deadline was the reason the context ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "generate pairs")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
