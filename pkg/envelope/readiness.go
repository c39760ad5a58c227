package envelope

import "fmt"

// evaluate moves a pending envelope to ready when there are no unattributed
// signatures and every multisig action is ready. Other states are kept.
func (e *Envelope) evaluate() {
	if e.State != StatePending || e.Pending.Len() != 0 {
		return
	}
	for i := range e.LockActions {
		if !e.LockActions[i].IsMultisig() {
			continue
		}
		a, err := e.LockActions[i].Multisig()
		if err != nil || !a.IsReady() {
			return
		}
	}
	e.State = StateReady
}

// SetOutcome records the broadcast outcome, only committed and rejected
// states can be set. A committed envelope can't change its state.
func (e *Envelope) SetOutcome(s State) error {
	if s != StateCommitted && s != StateRejected {
		return fmt.Errorf("%w: %s is not an outcome", ErrInvalidState, s)
	}
	if e.State == StateCommitted && s != StateCommitted {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, e.State, s)
	}
	e.State = s
	return nil
}
