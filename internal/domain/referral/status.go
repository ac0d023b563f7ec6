package referral

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the referral lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Action is a requested status change.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
)

var (
	// ErrInvalidTransition means the action is not legal from the current status.
	ErrInvalidTransition = errors.New("invalid referral transition")
	// ErrNotActor means the acting hospital is not allowed to take the action.
	ErrNotActor = errors.New("hospital may not act on this referral")
)

// Transition applies action to the referral on behalf of actor. It is the
// single authority for status changes; repositories store whatever comes out
// of it. Rejected and completed are terminal. There is no expiry and no
// cancellation.
func (r *Referral) Transition(action Action, actor uuid.UUID, now time.Time) error {
	switch action {
	case ActionAccept, ActionReject:
		if r.Status != StatusPending {
			return ErrInvalidTransition
		}
		if actor != r.ToHospitalID {
			return ErrNotActor
		}
		if action == ActionAccept {
			r.Status = StatusAccepted
		} else {
			r.Status = StatusRejected
		}
		r.RespondedAt = &now
	case ActionComplete:
		if r.Status != StatusAccepted {
			return ErrInvalidTransition
		}
		if actor != r.ToHospitalID && actor != r.FromHospitalID {
			return ErrNotActor
		}
		r.Status = StatusCompleted
		r.CompletedAt = &now
	default:
		return ErrInvalidTransition
	}
	return nil
}

// AllowedActions lists the actions the acting hospital may currently take.
func (r *Referral) AllowedActions(actor uuid.UUID) []Action {
	var actions []Action
	switch r.Status {
	case StatusPending:
		if actor == r.ToHospitalID {
			actions = append(actions, ActionAccept, ActionReject)
		}
	case StatusAccepted:
		if actor == r.ToHospitalID || actor == r.FromHospitalID {
			actions = append(actions, ActionComplete)
		}
	}
	return actions
}
