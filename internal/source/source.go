package source

import (
	"context"

	"timerless/internal/event"
)

// Source is the pull side of the remote timer: one call per poll.
type Source interface {
	Snapshot(ctx context.Context) (event.Snapshot, error)
	Config(ctx context.Context) (event.TimerConfig, error)
}

// Controller drives the remote timer. Each call maps to one action endpoint.
type Controller interface {
	StartWork(ctx context.Context) error
	RequestBreak(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	Clear(ctx context.Context) error
	SetConfig(ctx context.Context, cfg event.TimerConfig) error
}

// Remote is a timer service that can be both polled and driven.
type Remote interface {
	Source
	Controller
}
