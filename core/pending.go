package core

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConfirmExpired = errors.New("confirmation has expired, request the action again")
	ErrConfirmInvalid = errors.New("unknown or mismatched confirmation token")
)

// PendingAction is the first half of a two-step confirmation: the intent is
// registered, a token is handed back to the caller, and the destructive
// operation only executes when the token is re-submitted before it expires.
// Tokens are single-use and process-local, like the session flags they replace.
type PendingAction struct {
	ID        string    `json:"confirm_token"`
	Action    string    `json:"action"`
	TargetKey string    `json:"target_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PendingActions struct {
	mutex   sync.Mutex
	actions map[string]PendingAction
	timeout time.Duration
	now     func() time.Time
}

func NewPendingActions(timeout time.Duration) *PendingActions {
	return &PendingActions{
		actions: make(map[string]PendingAction),
		timeout: timeout,
		now:     time.Now,
	}
}

// Issue registers intent to perform action on targetKey and returns the token
// the caller must re-submit to confirm.
func (pa *PendingActions) Issue(action, targetKey string) PendingAction {
	pa.mutex.Lock()
	defer pa.mutex.Unlock()

	act := PendingAction{
		ID:        uuid.New().String(),
		Action:    action,
		TargetKey: targetKey,
		ExpiresAt: pa.now().Add(pa.timeout),
	}
	pa.actions[act.ID] = act
	pa.evict()
	return act
}

// Confirm consumes the token. The action and target must match the ones the
// token was issued for.
func (pa *PendingActions) Confirm(id, action, targetKey string) error {
	pa.mutex.Lock()
	defer pa.mutex.Unlock()

	act, ok := pa.actions[id]
	if !ok || act.Action != action || act.TargetKey != targetKey {
		return ErrConfirmInvalid
	}
	delete(pa.actions, id)
	if pa.now().After(act.ExpiresAt) {
		return ErrConfirmExpired
	}
	return nil
}

// Cancel drops a pending action without executing it.
func (pa *PendingActions) Cancel(id string) {
	pa.mutex.Lock()
	defer pa.mutex.Unlock()
	delete(pa.actions, id)
}

// evict drops expired tokens; callers must hold the mutex.
func (pa *PendingActions) evict() {
	now := pa.now()
	for id, act := range pa.actions {
		if now.After(act.ExpiresAt) {
			delete(pa.actions, id)
		}
	}
}
