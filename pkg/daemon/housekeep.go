// Package daemon drives the long-lived background sweep a vfsd process
// needs: blob orphan reclamation and service adapter idle-session expiry
// on one shared ticker.
package daemon

import (
	"context"
	"time"

	"github.com/vfscore/vfscore/pkg/blob"
	"github.com/vfscore/vfscore/pkg/logging"
)

// housekeepingInterval is the interval at which the shared sweep runs.
const housekeepingInterval = 5 * time.Minute

// sessionSweeper is the subset of *service.Service the daemon depends on,
// kept narrow so this package doesn't import pkg/service just to call one
// method.
type sessionSweeper interface {
	SweepSessions() int
}

// Housekeep performs one round of housekeeping: reclaiming orphaned blobs
// and sweeping idle streaming sessions.
func Housekeep(logger *logging.Logger, blobs *blob.Store, sessions sessionSweeper) {
	if blobs != nil {
		result, err := blobs.ReclaimOrphans()
		if err != nil {
			if logger != nil {
				logger.Errorf("housekeeping: blob reclamation failed: %v", err)
			}
		} else if logger != nil && result.Count > 0 {
			logger.Infof("housekeeping: reclaimed %d orphaned blobs (%d bytes)", result.Count, result.BytesFreed)
		}
	}
	if sessions != nil {
		if removed := sessions.SweepSessions(); removed > 0 && logger != nil {
			logger.Infof("housekeeping: reaped %d idle sessions", removed)
		}
	}
}

// HousekeepRegularly runs Housekeep once immediately and then on every
// tick of a housekeepingInterval ticker, until ctx is cancelled. It is
// designed to be run as a background goroutine in a long-lived daemon
// process.
func HousekeepRegularly(ctx context.Context, logger *logging.Logger, blobs *blob.Store, sessions sessionSweeper) {
	if logger != nil {
		logger.Info("performing initial housekeeping")
	}
	Housekeep(logger, blobs, sessions)

	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if logger != nil {
				logger.Info("performing regular housekeeping")
			}
			Housekeep(logger, blobs, sessions)
		}
	}
}
