package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/autocredit/cartera-api/internal/models"
)

// ContractFSM wraps a financing contract with its state machine
type ContractFSM struct {
	contract *models.FinancingContract
	fsm      *fsm.FSM
}

// NewContractFSM creates a new contract state machine
func NewContractFSM(contract *models.FinancingContract) *ContractFSM {
	cfsm := &ContractFSM{
		contract: contract,
	}

	cfsm.fsm = fsm.NewFSM(
		contract.Status,
		fsm.Events{
			// activo → completado (every installment paid)
			{Name: "complete", Src: []string{models.ContractStatusActive}, Dst: models.ContractStatusCompleted},

			// activo → incobrable (written off)
			{Name: "charge_off", Src: []string{models.ContractStatusActive}, Dst: models.ContractStatusChargedOff},

			// activo → recuperado (vehicle repossessed)
			{Name: "recover", Src: []string{models.ContractStatusActive}, Dst: models.ContractStatusRecovered},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Complete transitions the contract to completado
func (c *ContractFSM) Complete(ctx context.Context) error {
	if !c.contract.MayComplete() {
		return fmt.Errorf("contract cannot be completed in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// ChargeOff transitions the contract to incobrable
func (c *ContractFSM) ChargeOff(ctx context.Context) error {
	if !c.contract.MayChargeOff() {
		return fmt.Errorf("contract cannot be charged off in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "charge_off"); err != nil {
		return fmt.Errorf("failed to charge off contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Recover transitions the contract to recuperado
func (c *ContractFSM) Recover(ctx context.Context) error {
	if !c.contract.MayRecover() {
		return fmt.Errorf("contract cannot be recovered in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "recover"); err != nil {
		return fmt.Errorf("failed to recover contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ContractFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ContractFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
