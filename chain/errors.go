package chain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTxNotFound     = errors.New("tx receipt not found")
	ErrTxReverted     = errors.New("transaction reverted")
	ErrFunderMismatch = errors.New("funder mismatch")
	ErrWrongDare      = errors.New("funding event does not match dare")
)

// TxErrorKind separates "the user said no" from everything else.
type TxErrorKind int

const (
	TxOther TxErrorKind = iota
	TxRejected
)

// TxError wraps a wallet/provider failure with its classification so callers
// never have to look at message text themselves.
type TxError struct {
	Kind TxErrorKind
	Err  error
}

func (e *TxError) Error() string {
	if e.Kind == TxRejected {
		return fmt.Sprintf("transaction rejected in wallet: %v", e.Err)
	}
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// rejection phrasings vary per wallet provider; this list is the single place
// that knows about them
var rejectionMarkers = []string{
	"user rejected",
	"user denied",
}

// Classify converts a raw send/sign error into a TxError.
func Classify(err error) *TxError {
	if err == nil {
		return nil
	}
	var te *TxError
	if errors.As(err, &te) {
		return te
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rejectionMarkers {
		if strings.Contains(msg, marker) {
			return &TxError{Kind: TxRejected, Err: err}
		}
	}
	return &TxError{Kind: TxOther, Err: err}
}

// IsRejected reports whether err represents the user dismissing the wallet
// prompt (no funds moved; fully safe to retry).
func IsRejected(err error) bool {
	var te *TxError
	return errors.As(err, &te) && te.Kind == TxRejected
}
