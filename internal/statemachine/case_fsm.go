package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"github.com/autocredit/cartera-api/internal/models"
)

// CaseFSM wraps a collection case with its state machine
type CaseFSM struct {
	kase *models.CollectionCase
	fsm  *fsm.FSM
}

// NewCaseFSM creates a new collection case state machine
func NewCaseFSM(kase *models.CollectionCase) *CaseFSM {
	cfsm := &CaseFSM{
		kase: kase,
	}

	cfsm.fsm = fsm.NewFSM(
		kase.Status,
		fsm.Events{
			// abierto → cerrado (cured, or contract reached a terminal status)
			{Name: "close", Src: []string{models.CaseStatusOpen}, Dst: models.CaseStatusClosed},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Close shuts the case recording why and when
func (c *CaseFSM) Close(ctx context.Context, reason string, at time.Time) error {
	if !c.kase.MayClose() {
		return fmt.Errorf("case cannot be closed in current state: %s", c.kase.Status)
	}

	if err := c.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close case: %w", err)
	}

	c.kase.Status = c.fsm.Current()
	c.kase.CloseReason = reason
	c.kase.ClosedAt = &at
	return nil
}

// Current returns the current state
func (c *CaseFSM) Current() string {
	return c.fsm.Current()
}
