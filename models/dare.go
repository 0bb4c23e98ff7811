// models/dare.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// DareStatus tracks the escrow/claim lifecycle of a dare
type DareStatus string

const (
	DareStatusFunding       DareStatus = "FUNDING"        // init recorded, escrow tx not yet confirmed
	DareStatusAwaitingClaim DareStatus = "AWAITING_CLAIM" // funded, target handle has no verified tag yet
	DareStatusActive        DareStatus = "ACTIVE"         // funded and target bound, waiting for proof
	DareStatusPendingReview DareStatus = "PENDING_REVIEW" // proof submitted, in the moderation queue
	DareStatusVerified      DareStatus = "VERIFIED"
	DareStatusRejected      DareStatus = "REJECTED"
	DareStatusExpired       DareStatus = "EXPIRED"
)

// ClaimRequestStatus is the sub-state of a pending claim on a dare
type ClaimRequestStatus string

const (
	ClaimRequestPending  ClaimRequestStatus = "PENDING"
	ClaimRequestApproved ClaimRequestStatus = "APPROVED"
	ClaimRequestRejected ClaimRequestStatus = "REJECTED"
)

// DareCurrency is fixed: bounties are denominated in one stablecoin on the L2.
const DareCurrency = "USDC"

type Dare struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ShortID       string `gorm:"uniqueIndex;not null" json:"short_id"` // public slug for share links
	OnChainDareID int64  `gorm:"uniqueIndex;not null" json:"on_chain_dare_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// 💰 Economics — amount in display units plus the exact smallest-unit value used on chain
	BountyAmount float64 `gorm:"not null" json:"bounty_amount"`
	AmountWei    string  `gorm:"type:varchar(78);not null" json:"amount_wei"`
	Currency     string  `gorm:"type:varchar(16);not null;default:'USDC'" json:"currency"`

	// 🎯 Targeting. Empty handle (or "@everyone") means an open bounty anyone can fulfill.
	StreamerHandle      *string `gorm:"index" json:"streamer_handle,omitempty"`
	TargetWalletAddress *string `gorm:"type:varchar(64)" json:"target_wallet_address,omitempty"`
	IsOpenBounty        bool    `gorm:"default:false" json:"is_open_bounty"`

	Status DareStatus `gorm:"type:varchar(24);not null;default:'FUNDING';index" json:"status"`

	// Claim request sub-state — populated only once a wallet asks to be assigned this dare
	ClaimRequestWallet *string             `gorm:"type:varchar(64)" json:"claim_request_wallet,omitempty"`
	ClaimRequestTag    *string             `json:"claim_request_tag,omitempty"`
	ClaimRequestedAt   *time.Time          `json:"claim_requested_at,omitempty"`
	ClaimRequestStatus *ClaimRequestStatus `gorm:"type:varchar(16)" json:"claim_request_status,omitempty"`

	// 🗳️ Community signal
	ApproveVotes  int64 `gorm:"default:0" json:"approve_votes"`
	RejectVotes   int64 `gorm:"default:0" json:"reject_votes"`
	VoteThreshold int64 `gorm:"default:0" json:"vote_threshold"`

	// 📍 Nearby discovery (optional)
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	LocationLabel *string  `gorm:"size:100" json:"location_label,omitempty"`
	RadiusKM      *float64 `json:"radius_km,omitempty"`

	// ⛓️ Funding bookkeeping
	FundingTxHash  *string `gorm:"type:varchar(66)" json:"funding_tx_hash,omitempty"`
	FunderWallet   string  `gorm:"type:varchar(64);index" json:"funder_wallet"`
	ReferrerWallet *string `gorm:"type:varchar(64)" json:"referrer_wallet,omitempty"`

	// Proof under review
	ProofURL  *string `gorm:"type:text" json:"proof_url,omitempty"`
	ProofNote *string `gorm:"type:text" json:"proof_note,omitempty"`

	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ClaimDeadline *time.Time `gorm:"index" json:"claim_deadline,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TotalVotes is the combined tally used for the moderation gate.
func (d *Dare) TotalVotes() int64 {
	return d.ApproveVotes + d.RejectVotes
}

// ApprovePercent returns 0 when no votes have been cast.
func (d *Dare) ApprovePercent() float64 {
	total := d.TotalVotes()
	if total == 0 {
		return 0
	}
	return float64(d.ApproveVotes) / float64(total) * 100
}

// MeetsVoteThreshold gates moderator decision readiness. Threshold 0 = ungated.
func (d *Dare) MeetsVoteThreshold() bool {
	return d.TotalVotes() >= d.VoteThreshold
}
