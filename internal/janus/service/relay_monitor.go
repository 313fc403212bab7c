package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/janus-access/server/internal/actuator"
	"github.com/janus-access/server/internal/janus/store"
)

// RelayMonitor periodically polls each active door's relay and records
// the last successful state read on the door. It runs as a background
// goroutine and is safe to stop via its context or the Stop method.
//
// An interval of 0 disables monitoring entirely.
type RelayMonitor struct {
	doors    store.DoorStore
	relay    actuator.Client
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRelayMonitor creates a monitor but does not start it.
// Call Start to begin the background loop.
func NewRelayMonitor(doors store.DoorStore, relay actuator.Client, interval time.Duration, logger *zap.Logger) *RelayMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayMonitor{
		doors:    doors,
		relay:    relay,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the background polling loop. It runs an immediate sweep
// on startup, then repeats on the configured interval. The loop exits
// when ctx is cancelled or Stop is called.
func (m *RelayMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("relay monitor disabled (interval=0)")
		close(m.done)
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)

	go m.loop(ctx)

	m.logger.Info("relay monitor started", zap.Duration("interval", m.interval))
}

// Stop signals the monitor to exit and waits for it to finish.
func (m *RelayMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

func (m *RelayMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *RelayMonitor) sweep(ctx context.Context) {
	doors, err := m.doors.ListDoors(ctx, nil)
	if err != nil {
		m.logger.Warn("relay sweep: list doors", zap.Error(err))
		return
	}

	for _, door := range doors {
		if ctx.Err() != nil {
			return
		}
		if !door.IsActive {
			continue
		}

		state, err := m.relay.ReadState(ctx, door)
		if err != nil {
			m.logger.Warn("relay unreachable",
				zap.String("door_id", door.ID), zap.Error(err))
			continue
		}
		if err := m.doors.MarkSeen(ctx, door.ID, time.Now().UTC()); err != nil {
			m.logger.Warn("relay sweep: mark seen",
				zap.String("door_id", door.ID), zap.Error(err))
			continue
		}
		m.logger.Debug("relay seen",
			zap.String("door_id", door.ID), zap.String("state", string(state)))
	}
}
