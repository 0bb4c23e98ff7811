package chain

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyRejection(t *testing.T) {
	cases := []struct {
		err      error
		rejected bool
	}{
		{errors.New("User rejected the request"), true},
		{errors.New("MetaMask Tx Signature: User denied transaction signature."), true},
		{errors.New("user rejected transaction"), true},
		{errors.New("insufficient funds for gas"), false},
		{errors.New("execution reverted"), false},
	}

	for _, tc := range cases {
		te := Classify(tc.err)
		if got := te.Kind == TxRejected; got != tc.rejected {
			t.Errorf("Classify(%q): rejected=%v, want %v", tc.err, got, tc.rejected)
		}
		if !IsRejected(te) && tc.rejected {
			t.Errorf("IsRejected should be true for %q", tc.err)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	te := Classify(errors.New("User rejected the request"))
	again := Classify(fmt.Errorf("send failed: %w", te))
	if again.Kind != TxRejected {
		t.Fatal("classification must survive wrapping")
	}
}

func TestIsRejectedOnPlainError(t *testing.T) {
	if IsRejected(errors.New("User rejected the request")) {
		t.Fatal("plain errors are unclassified; only TxError counts")
	}
	if IsRejected(nil) {
		t.Fatal("nil is not a rejection")
	}
}
