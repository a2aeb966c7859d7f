package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/repos"
	"github.com/careerbridge/careerbridge-backend/internal/sse"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

// ProgressCache is an optional read-through cache in front of the user
// store. The store stays the single source of truth: the cache is
// invalidated on every write and refilled on the next read.
type ProgressCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.ProgressRecord, bool)
	Set(ctx context.Context, userID uuid.UUID, rec *types.ProgressRecord)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type ProgressService interface {
	// TrackProgress applies one activity/skill update to the user's record,
	// persists it, and broadcasts the new state to every live subscriber.
	TrackProgress(ctx context.Context, userID uuid.UUID, input types.ProgressInput) (*types.ProgressRecord, error)
	// GetProgress returns the current record, lazily defaulted for users
	// that have never reported an activity.
	GetProgress(ctx context.Context, userID uuid.UUID) (*types.ProgressRecord, error)
	// Subscribe registers a sink for the user's updates, immediately emits
	// the current record as an initial snapshot, and returns an idempotent
	// unsubscribe func.
	Subscribe(ctx context.Context, userID uuid.UUID, sink sse.Sink) (func(), error)
}

type progressService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	cache    ProgressCache
	hub      *sse.Hub

	mu        sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

func NewProgressService(log *logger.Logger, userRepo repos.UserRepo, cache ProgressCache, hub *sse.Hub) ProgressService {
	return &progressService{
		log:       log.With("service", "ProgressService"),
		userRepo:  userRepo,
		cache:     cache,
		hub:       hub,
		userLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor serializes TrackProgress calls per user so racing events cannot
// both observe the same pre-update counters and double-fire an achievement.
// Calls for different users proceed in parallel.
func (ps *progressService) lockFor(userID uuid.UUID) *sync.Mutex {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	lock, ok := ps.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		ps.userLocks[userID] = lock
	}
	return lock
}

func (ps *progressService) TrackProgress(ctx context.Context, userID uuid.UUID, input types.ProgressInput) (*types.ProgressRecord, error) {
	lock := ps.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	cur, err := ps.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next, unlocked, err := applyProgressUpdate(cur, input, now)
	if err != nil {
		return nil, err
	}

	// Persist before broadcasting: subscribers must never see state that
	// is not yet durable.
	if err := ps.userRepo.UpdateProgress(ctx, nil, userID, next, now); err != nil {
		return nil, fmt.Errorf("persist progress: %w", err)
	}
	if ps.cache != nil {
		ps.cache.Invalidate(ctx, userID)
	}

	for _, a := range unlocked {
		ps.log.Info("Achievement unlocked", "userID", userID, "achievement", a.ID)
	}

	ps.hub.Broadcast(userID, sse.Message{
		Type:      sse.EventProgressUpdate,
		UserID:    userID.String(),
		Progress:  next,
		Timestamp: now,
	})

	return next, nil
}

func (ps *progressService) GetProgress(ctx context.Context, userID uuid.UUID) (*types.ProgressRecord, error) {
	return ps.loadProgress(ctx, userID)
}

func (ps *progressService) Subscribe(ctx context.Context, userID uuid.UUID, sink sse.Sink) (func(), error) {
	rec, err := ps.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	unsubscribe := ps.hub.Subscribe(userID, sink)

	if err := sink.Emit(sse.Message{
		Type:      sse.EventInitialProgress,
		UserID:    userID.String(),
		Progress:  rec,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		ps.log.Warn("Failed to emit initial progress", "userID", userID, "error", err)
	}

	return unsubscribe, nil
}

func (ps *progressService) loadProgress(ctx context.Context, userID uuid.UUID) (*types.ProgressRecord, error) {
	if ps.cache != nil {
		if rec, ok := ps.cache.Get(ctx, userID); ok {
			return rec, nil
		}
	}

	user, err := ps.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	rec, err := user.ProgressRecord()
	if err != nil {
		return nil, fmt.Errorf("decode progress for user %s: %w", userID, err)
	}

	if ps.cache != nil {
		ps.cache.Set(ctx, userID, rec)
	}
	return rec, nil
}
