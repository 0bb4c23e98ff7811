package orchestrator

import (
	"errors"
	"fmt"
)

// Step names where in the funding sequence a failure happened.
type Step string

const (
	StepInit     Step = "init"
	StepApprove  Step = "approve"
	StepFund     Step = "fund"
	StepRegister Step = "register"
)

// FailKind is the surfaced failure taxonomy. Canceled kinds mean the user
// dismissed the wallet prompt; nothing moved and the run is safe to retry.
// RegistrationDesynced is the one kind that is NOT safely retryable: funds
// are escrowed on-chain but the backend never recorded it.
type FailKind string

const (
	FailInit                 FailKind = "InitError"
	FailApprovalCanceled     FailKind = "ApprovalCanceled"
	FailApprovalFailed       FailKind = "ApprovalFailed"
	FailFundingCanceled      FailKind = "FundingCanceled"
	FailFundingFailed        FailKind = "FundingFailed"
	FailRegistrationDesynced FailKind = "RegistrationDesynced"
)

// FlowError carries structured {step, txHash} context through the catch path
// instead of burying progress in message text.
type FlowError struct {
	Step   Step
	Kind   FailKind
	TxHash string
	Err    error
}

func (e *FlowError) Error() string {
	switch e.Kind {
	case FailApprovalCanceled, FailFundingCanceled:
		return fmt.Sprintf("canceled in wallet during %s step", e.Step)
	case FailRegistrationDesynced:
		return fmt.Sprintf(
			"dare was funded on-chain (tx %s) but backend registration failed: %v — keep the tx hash, support can reconcile the record",
			e.TxHash, e.Err,
		)
	default:
		return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
	}
}

func (e *FlowError) Unwrap() error { return e.Err }

// IsCanceled reports whether the run ended because the user rejected a wallet
// prompt. No side effect occurred.
func IsCanceled(err error) bool {
	var fe *FlowError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == FailApprovalCanceled || fe.Kind == FailFundingCanceled
}

// IsDesynced reports the dangerous case: on-chain funding confirmed, backend
// registration failed.
func IsDesynced(err error) bool {
	var fe *FlowError
	return errors.As(err, &fe) && fe.Kind == FailRegistrationDesynced
}
