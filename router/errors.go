package router

import "fmt"

// InvalidOrderError reports a request that failed local validation.
// Nothing was sent to the venue or the chain.
type InvalidOrderError struct {
	Field  string
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order: %s: %s", e.Field, e.Reason)
}

// AllowanceTransactionFailedError reports a reverted or timed-out approval
// transaction. Step identifies which pair failed; approvals confirmed before
// it stand, so re-running Set is safe.
type AllowanceTransactionFailedError struct {
	Step   string
	TxHash string
	Err    error
}

func (e *AllowanceTransactionFailedError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("allowance step %q failed (tx %s): %v", e.Step, e.TxHash, e.Err)
	}
	return fmt.Sprintf("allowance step %q failed: %v", e.Step, e.Err)
}

func (e *AllowanceTransactionFailedError) Unwrap() error { return e.Err }

// DeploymentFailedError reports a failed smart wallet deployment transaction.
type DeploymentFailedError struct {
	SafeAddress string
	TxHash      string
	Err         error
}

func (e *DeploymentFailedError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("deployment of %s failed (tx %s): %v", e.SafeAddress, e.TxHash, e.Err)
	}
	return fmt.Sprintf("deployment of %s failed: %v", e.SafeAddress, e.Err)
}

func (e *DeploymentFailedError) Unwrap() error { return e.Err }
