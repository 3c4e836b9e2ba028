// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

// loopOptions holds configuration resolved from LoopOption values.
type loopOptions struct {
	logger           *eventLogger
	metricsEnabled   bool
	metricsLatencies []float64
	maxWorkers       int
}

// LoopOption configures a [Loop] at construction time, following the same
// "unexported options struct + exported Option interface" shape as the
// teacher's eventloop.LoopOption.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

type loopOptionFunc func(*loopOptions) error

func (f loopOptionFunc) applyLoop(o *loopOptions) error { return f(o) }

// WithLogger attaches a structured logger to the loop and everything it
// owns (worker pool, channels created against it by default).
func WithLogger(l *eventLogger) LoopOption {
	return loopOptionFunc(func(o *loopOptions) error {
		o.logger = l
		return nil
	})
}

// WithMetrics enables runtime metrics collection (queue depth, tick
// latency percentiles) on the loop. See [Loop.Metrics].
func WithMetrics(enabled bool) LoopOption {
	return loopOptionFunc(func(o *loopOptions) error {
		o.metricsEnabled = enabled
		return nil
	})
}

// WithLatencyPercentiles configures which percentiles the loop's tick
// latency estimator tracks (default: p50, p95, p99). Only meaningful when
// combined with [WithMetrics].
func WithLatencyPercentiles(percentiles ...float64) LoopOption {
	return loopOptionFunc(func(o *loopOptions) error {
		o.metricsLatencies = percentiles
		return nil
	})
}

// WithMaxWorkers bounds the loop's default [WorkerPool] size; zero (the
// default) means the pool grows dynamically, matching spec.md's
// "reusing one from the pool ... up to maxWorkers" with an unbounded pool
// when no cap is given.
func WithMaxWorkers(n int) LoopOption {
	return loopOptionFunc(func(o *loopOptions) error {
		o.maxWorkers = n
		return nil
	})
}

func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		metricsLatencies: []float64{0.50, 0.95, 0.99},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// channelOptions holds configuration resolved from ChannelOption values.
type channelOptions struct {
	logger *eventLogger
}

// ChannelOption configures a [Channel] at construction time.
type ChannelOption interface {
	applyChannel(*channelOptions) error
}

type channelOptionFunc func(*channelOptions) error

func (f channelOptionFunc) applyChannel(o *channelOptions) error { return f(o) }

// WithChannelLogger attaches a structured logger to a channel.
func WithChannelLogger(l *eventLogger) ChannelOption {
	return channelOptionFunc(func(o *channelOptions) error {
		o.logger = l
		return nil
	})
}

func resolveChannelOptions(opts []ChannelOption) (*channelOptions, error) {
	cfg := &channelOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyChannel(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
