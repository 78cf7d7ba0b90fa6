package bdgr

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// gcRunner periodically reclaims space in the badger value log
type gcRunner struct {
	stopCh chan struct{}
	doneCh chan struct{}
}

func startGC(db *badger.DB, interval time.Duration, ratio float64, l *zap.Logger) *gcRunner {
	r := &gcRunner{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				// a single call reclaims at most one log file: loop until nothing is left to rewrite
				for {
					err := db.RunValueLogGC(ratio)
					if err == nil {
						continue
					}
					if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
						l.Warn("value log gc failed", zap.Error(err))
					}
					break
				}
			}
		}
	}()

	return r
}

func (r *gcRunner) stop() {
	close(r.stopCh)
	<-r.doneCh
}
