package services

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"sync-photo-client/internal/config"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/observe"
	"sync-photo-client/internal/remote"

	"github.com/rs/zerolog/log"
)

// Phase tells whether a like change is waiting on the server
type Phase int

const (
	// PhaseIdle means the state matches the last server answer or seed
	PhaseIdle Phase = iota
	// PhasePending means an optimistic change is in flight
	PhasePending
)

func (p Phase) String() string {
	if p == PhasePending {
		return "pending"
	}
	return "idle"
}

// LikeState is the viewer's like flag and the photo's like count
type LikeState struct {
	Liked bool
	Count int
	Phase Phase
}

// RollbackPolicy decides what a failed toggle restores
type RollbackPolicy int

const (
	// RollbackSymmetric restores both the flag and the count
	RollbackSymmetric RollbackPolicy = iota
	// RollbackFlagOnly restores the flag and keeps the optimistic count
	RollbackFlagOnly
)

// ParseRollbackPolicy maps a config value to a policy. Empty means symmetric.
func ParseRollbackPolicy(value string) (RollbackPolicy, error) {
	switch value {
	case "", config.RollbackSymmetric:
		return RollbackSymmetric, nil
	case config.RollbackFlagOnly:
		return RollbackFlagOnly, nil
	default:
		return 0, fmt.Errorf("unknown like rollback policy %q", value)
	}
}

// LikeService applies like toggles optimistically and reconciles them with the server
type LikeService struct {
	client remote.Client
	policy RollbackPolicy
	states *observe.Value[map[string]LikeState]

	// generation is bumped by Reset; toggles started in an older generation
	// do not settle into the new one. Read and written under the states lock.
	generation uint64

	mu    sync.Mutex
	locks map[string]*photoLock
}

type photoLock struct {
	sync.Mutex
	refs int
}

// NewLikeService creates a new like service
func NewLikeService(client remote.Client, policy RollbackPolicy) *LikeService {
	return &LikeService{
		client: client,
		policy: policy,
		states: observe.NewValue(map[string]LikeState{}, func(a, b map[string]LikeState) bool { return maps.Equal(a, b) }),
		locks:  make(map[string]*photoLock),
	}
}

// Seed records server-reported like state. Photos with a toggle in flight keep
// their optimistic state.
func (s *LikeService) Seed(photos []models.Photo) {
	if len(photos) == 0 {
		return
	}
	s.states.Update(func(current map[string]LikeState) map[string]LikeState {
		next := maps.Clone(current)
		for _, p := range photos {
			if next[p.ID].Phase == PhasePending {
				continue
			}
			next[p.ID] = LikeState{Liked: p.LikedByMe, Count: p.LikeCount}
		}
		return next
	})
}

// State returns the like state of a photo
func (s *LikeService) State(photoID string) (LikeState, bool) {
	state, ok := s.states.Get()[photoID]
	return state, ok
}

// Watch subscribes to the like state of every known photo (read-only).
// The caller must Close the subscription.
func (s *LikeService) Watch() *observe.Subscription[map[string]LikeState] {
	return s.states.Subscribe()
}

// Reset forgets every like state, including the outcome of toggles still in flight
func (s *LikeService) Reset() {
	s.states.Update(func(map[string]LikeState) map[string]LikeState {
		s.generation++
		return map[string]LikeState{}
	})
}

// Toggle flips the viewer's like on a photo. The new state is published as
// pending before the request and settled after it; on failure the state is
// rolled back according to the policy and the error is returned. Toggles of
// the same photo run one at a time.
func (s *LikeService) Toggle(ctx context.Context, groupID, photoID string) (LikeState, error) {
	unlock := s.lockPhoto(photoID)
	defer unlock()

	var before, optimistic LikeState
	var generation uint64
	s.states.Update(func(current map[string]LikeState) map[string]LikeState {
		generation = s.generation
		before = current[photoID]
		before.Phase = PhaseIdle

		optimistic = LikeState{Liked: !before.Liked, Count: before.Count, Phase: PhasePending}
		if optimistic.Liked {
			optimistic.Count++
		} else if optimistic.Count > 0 {
			optimistic.Count--
		}

		next := maps.Clone(current)
		next[photoID] = optimistic
		return next
	})

	var err error
	if optimistic.Liked {
		_, err = s.client.LikePhoto(ctx, groupID, photoID)
	} else {
		_, err = s.client.UnlikePhoto(ctx, groupID, photoID)
	}

	if err != nil {
		restored := before
		if s.policy == RollbackFlagOnly {
			restored.Count = optimistic.Count
		}
		s.settle(generation, photoID, restored)

		log.Warn().
			Err(err).
			Str("group_id", groupID).
			Str("photo_id", photoID).
			Bool("liked", optimistic.Liked).
			Msg("Like toggle failed, rolled back")
		return restored, err
	}

	confirmed := optimistic
	confirmed.Phase = PhaseIdle
	s.settle(generation, photoID, confirmed)
	return confirmed, nil
}

// settle publishes the final state of a toggle unless Reset ran since it started
func (s *LikeService) settle(generation uint64, photoID string, state LikeState) {
	s.states.Update(func(current map[string]LikeState) map[string]LikeState {
		if s.generation != generation {
			return current
		}
		next := maps.Clone(current)
		next[photoID] = state
		return next
	})
}

// lockPhoto serializes toggles of one photo. The returned func releases the
// lock and drops it from the map once no toggle holds or waits on it.
func (s *LikeService) lockPhoto(photoID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[photoID]
	if !ok {
		lock = &photoLock{}
		s.locks[photoID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, photoID)
		}
		s.mu.Unlock()
	}
}
