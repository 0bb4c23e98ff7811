package services

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("insert failed: %w", gorm.ErrDuplicatedKey), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_dares_on_chain_dare_id" (SQLSTATE 23505)`), true},
		{errors.New("connection refused"), false},
		{gorm.ErrRecordNotFound, false},
	}
	for _, tc := range cases {
		if got := isDuplicateKey(tc.err); got != tc.want {
			t.Errorf("isDuplicateKey(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
