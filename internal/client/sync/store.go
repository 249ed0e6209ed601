package sync

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// queueKey is the single well-known key holding the serialized queue.
const queueKey = "pending_actions"

var (
	ErrActionNotFound    = errors.New("sync: action not found")
	ErrActionNotTerminal = errors.New("sync: action is not failed-terminal")
)

// StorageError wraps a persistence failure. Losing the queue loses user
// data, so callers must surface these loudly instead of swallowing them.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sync: storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store is the durable, ordered queue of not-yet-confirmed client mutations.
// The persisted copy is authoritative; the in-memory slice is a cache that
// Load rebuilds after a restart or crash.
type Store struct {
	kv      KV
	mu      sync.Mutex
	actions []*PendingAction
	now     func() time.Time
}

func NewStore(kv KV) *Store {
	return &Store{
		kv:  kv,
		now: time.Now,
	}
}

// Load replaces the in-memory queue with the persisted copy. Actions that
// were in-flight when the previous session died were never confirmed, so
// they go back to queued.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(queueKey)
	if err != nil {
		return &StorageError{Op: "load", Err: err}
	}
	if !ok {
		s.actions = nil
		return nil
	}

	var actions []*PendingAction
	if err := json.Unmarshal(raw, &actions); err != nil {
		return &StorageError{Op: "load", Err: err}
	}

	requeued := 0
	for _, a := range actions {
		if a.Status == StatusInFlight {
			a.Status = StatusQueued
			requeued++
		}
	}
	s.actions = actions

	if requeued > 0 {
		slog.Info("sync store recovered in-flight actions", "requeued", requeued)
	}
	slog.Info("sync store loaded", "pending", len(actions))
	return nil
}

// Enqueue appends a new queued action and persists the full queue before
// returning. A StorageError here means the mutation is at risk of being
// lost; the caller must tell the user, not drop it silently.
func (s *Store) Enqueue(kind ActionKind, payload json.RawMessage, maxRetries int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := &PendingAction{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		CreatedAt:  s.now().UTC(),
		MaxRetries: maxRetries,
		Status:     StatusQueued,
	}

	s.actions = append(s.actions, action)
	if err := s.persistLocked("enqueue"); err != nil {
		s.actions = s.actions[:len(s.actions)-1]
		return "", err
	}

	slog.Debug("sync enqueue", "id", action.ID, "kind", kind, "pending", len(s.actions))
	return action.ID, nil
}

// MarkInFlight flags an action as being replayed right now.
func (s *Store) MarkInFlight(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	if a == nil {
		return ErrActionNotFound
	}

	prev := a.Status
	a.Status = StatusInFlight
	if err := s.persistLocked("mark in-flight"); err != nil {
		a.Status = prev
		return err
	}
	return nil
}

// MarkSucceeded removes an action after confirmed server acknowledgement.
func (s *Store) MarkSucceeded(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, a := range s.actions {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrActionNotFound
	}

	s.actions = append(s.actions[:idx], s.actions[idx+1:]...)
	return s.persistLocked("mark succeeded")
}

// MarkFailed counts one failed attempt. Terminal failures, and any action
// whose attempts exceed its retry ceiling, land in failed-terminal and stay
// there until the user dismisses them.
func (s *Store) MarkFailed(id string, terminal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	if a == nil {
		return ErrActionNotFound
	}

	prevStatus := a.Status
	a.Attempts++
	if terminal || a.Attempts > a.MaxRetries {
		a.Status = StatusFailedTerminal
	} else {
		a.Status = StatusFailedRetryable
	}

	if err := s.persistLocked("mark failed"); err != nil {
		a.Attempts--
		a.Status = prevStatus
		return err
	}
	return nil
}

// Reprioritize moves an action ahead of FIFO order in the next drain pass.
func (s *Store) Reprioritize(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	if a == nil {
		return ErrActionNotFound
	}

	prev := a.Prioritized
	a.Prioritized = true
	if err := s.persistLocked("reprioritize"); err != nil {
		a.Prioritized = prev
		return err
	}
	return nil
}

// Remove is the explicit user dismissal of a failed-terminal action.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, a := range s.actions {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrActionNotFound
	}
	if !s.actions[idx].Terminal() {
		return ErrActionNotTerminal
	}

	s.actions = append(s.actions[:idx], s.actions[idx+1:]...)
	return s.persistLocked("remove")
}

// List returns a read-only snapshot in queue order.
func (s *Store) List() []*PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*PendingAction, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, a.clone())
	}
	return out
}

// Len returns the number of pending actions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

func (s *Store) findLocked(id string) *PendingAction {
	for _, a := range s.actions {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// persistLocked writes the full queue to the KV under the well-known key.
// The in-memory slice and the persisted copy are always written together.
func (s *Store) persistLocked(op string) error {
	raw, err := json.Marshal(s.actions)
	if err != nil {
		return &StorageError{Op: op, Err: err}
	}
	if err := s.kv.Set(queueKey, raw); err != nil {
		return &StorageError{Op: op, Err: err}
	}
	return nil
}
