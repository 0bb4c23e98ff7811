// models/pending_funding.go
package models

import "time"

// PendingFundingStatus tracks server-side verification of a funding tx hash
type PendingFundingStatus string

const (
	PendingFundingPending   PendingFundingStatus = "pending"
	PendingFundingConfirmed PendingFundingStatus = "confirmed"
	PendingFundingFailed    PendingFundingStatus = "failed"
)

// PendingFunding is one registration attempt: "dare X claims to be funded by
// tx Y". The funding verify worker owns these rows: it polls the chain for
// the receipt and promotes or fails the dare. A desynced dare (funded on chain
// but never registered) is reconciled by inserting a row for its tx hash;
// nothing else is needed.
type PendingFunding struct {
	ID       string               `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	DareID   string               `gorm:"type:uuid;not null;index" json:"dare_id"`
	TxHash   string               `gorm:"type:varchar(66);uniqueIndex;not null" json:"tx_hash"`
	Status   PendingFundingStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Attempts int                  `gorm:"default:0" json:"attempts"`
	LastErr  *string              `gorm:"type:text" json:"last_err,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
