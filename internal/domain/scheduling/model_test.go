package scheduling

import (
	"errors"
	"testing"
)

func TestSetStatusTransitions(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusScheduled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusScheduled, "paused", false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			a := &Appointment{Status: tt.from}
			err := a.SetStatus(tt.to)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if a.Status != tt.to {
					t.Errorf("status = %s, want %s", a.Status, tt.to)
				}
				return
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("err = %v, want ErrInvalidTransition", err)
			}
			if a.Status != tt.from {
				t.Errorf("status changed to %s on failed transition", a.Status)
			}
		})
	}
}
