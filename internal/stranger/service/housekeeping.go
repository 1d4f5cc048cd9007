package service

import (
	"context"
	"log/slog"
	"time"
)

// DefaultHousekeepingInterval is used when none is configured.
const DefaultHousekeepingInterval = 15 * time.Second

// LeaseSweeper fires the armed disconnect writes whose leases have lapsed.
type LeaseSweeper interface {
	SweepExpiredLeases(ctx context.Context) (int, error)
}

// HousekeepingService periodically settles presence for connections whose
// server instance stopped renewing their leases.
type HousekeepingService struct {
	Sweeper  LeaseSweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval falls back to DefaultHousekeepingInterval.
func NewHousekeepingService(sweeper LeaseSweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}

	return &HousekeepingService{
		Sweeper:  sweeper,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	n, err := s.Sweeper.SweepExpiredLeases(ctx)
	if err != nil {
		s.Logger.Error("failed to sweep expired presence leases", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Info("settled expired presence leases", "fired", n)
	} else {
		s.Logger.Debug("no expired presence leases")
	}
}
