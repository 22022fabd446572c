// Package snapshot holds the leap second table currently in use.
//
// Readers take one snapshot per conversion; a refresh swaps in a new table
// atomically and never disturbs conversions already running against the old
// one.
package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/karasz/gtleap/convert"
	"github.com/karasz/gtleap/leapsecs"
	"github.com/karasz/gtleap/source"
)

// ErrInterval is returned by Watch for a non-positive interval.
var ErrInterval = errors.New("refresh interval must be positive")

// Store publishes the current table.
type Store struct {
	current atomic.Pointer[leapsecs.Table]
	gen     atomic.Uint64
	mu      sync.Mutex // serializes refreshes
	logger  *slog.Logger
}

// New returns a store publishing tbl. A nil logger discards log output.
func New(tbl *leapsecs.Table, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{logger: logger}
	s.current.Store(tbl)
	s.gen.Store(1)
	return s
}

// Current returns the published table.
func (s *Store) Current() *leapsecs.Table {
	return s.current.Load()
}

// Generation counts the tables published so far, starting at 1.
func (s *Store) Generation() uint64 {
	return s.gen.Load()
}

// Refresh loads src and publishes the result if it differs from the current
// table. On error the current table stays published and the error is
// returned.
func (s *Store) Refresh(src source.Source) error {
	tbl, err := source.Load(src)
	if err != nil {
		s.logger.Warn("leap second table refresh failed, keeping current table",
			"error", err,
			"generation", s.Generation())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()
	if old != nil && old.Equal(tbl) {
		s.logger.Debug("leap second table unchanged", "entries", tbl.Len())
		return nil
	}
	s.current.Store(tbl)
	gen := s.gen.Add(1)
	s.logger.Info("leap second table updated",
		"generation", gen,
		"entries", tbl.Len(),
		"offset", tbl.Last().TAIMinusUTC,
		"expires", time.Unix(tbl.ExpiresAt(), 0).UTC())
	return nil
}

// Watch refreshes from src every interval until ctx is done. Failed
// refreshes are logged and retried on the next tick.
func (s *Store) Watch(ctx context.Context, interval time.Duration, src source.Source) error {
	if interval <= 0 {
		return ErrInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.Refresh(src)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TAIToUTC converts t against the current table.
func (s *Store) TAIToUTC(t convert.Instant) (convert.Result, error) {
	return convert.TAIToUTC(t, s.Current())
}

// UTCToTAI converts u against the current table.
func (s *Store) UTCToTAI(u convert.Instant) (convert.Result, error) {
	return convert.UTCToTAI(u, s.Current())
}
