package application

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/input"
	"github.com/dronedb/ddb/internal/ports/output"
)

// ErrRateLimited is returned when PullService.TriggerPull is called more
// often than its cooldown allows.
var ErrRateLimited = errors.New("rate limit exceeded")

// pullTriggerCooldown bounds how often an API-triggered pull may run.
const pullTriggerCooldown = 30 * time.Second

// PullResult reports the outcome of a single pull cycle: how many remote
// objects were newly downloaded before the addToIndex pass, how many
// entries that pass added or updated, and when the next scheduled pull
// will run.
type PullResult struct {
	ObjectsDownloaded int       `json:"objects_downloaded"`
	EntriesIndexed    int       `json:"entries_indexed"`
	PulledAt          time.Time `json:"pulled_at"`
	NextScheduledAt   time.Time `json:"next_scheduled_at,omitempty"`
}

// PullService materializes source assets from an output.ObjectStorage
// backend into a working tree and runs a normal AddToIndex pass over them.
// It supports both a one-shot materialize-then-index call and an optional
// periodic schedule with a rate-limited manual trigger and graceful stop.
type PullService struct {
	storage  output.ObjectStorage
	indexer  input.Indexer
	destRoot string
	interval time.Duration
	logger   *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	lastTrigger time.Time
	triggerMu   sync.Mutex

	pullOpMutex sync.Mutex

	nextPull time.Time
	nextMu   sync.RWMutex
}

// NewPullService builds a PullService. destRoot is the working tree
// directory new objects are downloaded into before indexing; interval is
// the period between scheduled pulls (Start is a no-op caller concern if
// interval <= 0, matching a "pull once and exit" CLI invocation).
func NewPullService(storage output.ObjectStorage, indexer input.Indexer, destRoot string, interval time.Duration, logger *slog.Logger) *PullService {
	return &PullService{
		storage:     storage,
		indexer:     indexer,
		destRoot:    destRoot,
		interval:    interval,
		logger:      logger,
		stopCh:      make(chan struct{}),
		lastTrigger: time.Now().Add(-pullTriggerCooldown - time.Second),
	}
}

// Start begins the periodic pull scheduler. No-op if interval <= 0.
func (s *PullService) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.logger.Info("starting pull service", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

func (s *PullService) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.setNextPull(time.Now().Add(s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("pull service stopped: context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("pull service stopped")
			return
		case <-ticker.C:
			s.logger.Debug("scheduled pull triggered")
			if _, err := s.doPull(ctx); err != nil {
				s.logger.Error("pull failed", "error", err)
			}
			s.setNextPull(time.Now().Add(s.interval))
		}
	}
}

// Stop gracefully stops the pull service. No-op if Start was never
// called (interval <= 0).
func (s *PullService) Stop() {
	if s.interval <= 0 {
		return
	}
	s.logger.Info("stopping pull service")
	close(s.stopCh)
	s.wg.Wait()
}

// TriggerPull runs a pull immediately, rate-limited to one call per
// pullTriggerCooldown.
func (s *PullService) TriggerPull(ctx context.Context) (PullResult, error) {
	s.triggerMu.Lock()
	defer s.triggerMu.Unlock()

	if time.Since(s.lastTrigger) < pullTriggerCooldown {
		return PullResult{}, ErrRateLimited
	}
	s.lastTrigger = time.Now()

	return s.doPull(ctx)
}

// doPull downloads every remote object not yet present locally and runs
// AddToIndex over the destination root.
func (s *PullService) doPull(ctx context.Context) (PullResult, error) {
	s.pullOpMutex.Lock()
	defer s.pullOpMutex.Unlock()

	objects, err := s.storage.List(ctx)
	if err != nil {
		return PullResult{}, err
	}

	downloaded := 0
	for _, obj := range objects {
		dest := filepath.Join(s.destRoot, filepath.FromSlash(obj.Key))
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := s.storage.Download(ctx, obj.Key, dest); err != nil {
			s.logger.Warn("pull download failed", "key", obj.Key, "error", err)
			continue
		}
		downloaded++
	}

	var indexed int
	err = s.indexer.AddToIndex(ctx, []string{s.destRoot}, func(_ domain.Entry, _ bool) bool {
		indexed++
		return true
	})
	if err != nil {
		return PullResult{}, err
	}

	return PullResult{
		ObjectsDownloaded: downloaded,
		EntriesIndexed:    indexed,
		PulledAt:          time.Now(),
		NextScheduledAt:   s.getNextPull(),
	}, nil
}

func (s *PullService) setNextPull(t time.Time) {
	s.nextMu.Lock()
	defer s.nextMu.Unlock()
	s.nextPull = t
}

func (s *PullService) getNextPull() time.Time {
	s.nextMu.RLock()
	defer s.nextMu.RUnlock()
	return s.nextPull
}

// Interval returns the configured pull interval.
func (s *PullService) Interval() time.Duration {
	return s.interval
}
