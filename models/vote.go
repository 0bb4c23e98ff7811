// models/vote.go
package models

import "time"

type VoteVerdict string

const (
	VoteApprove VoteVerdict = "approve"
	VoteReject  VoteVerdict = "reject"
)

// DareVote is one wallet's verdict on a dare's proof. One row per (dare, voter);
// re-voting updates the row and the tally on the dare.
type DareVote struct {
	ID          string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	DareID      string      `gorm:"type:uuid;not null;uniqueIndex:idx_dare_voter" json:"dare_id"`
	VoterWallet string      `gorm:"type:varchar(64);not null;uniqueIndex:idx_dare_voter" json:"voter_wallet"`
	Verdict     VoteVerdict `gorm:"type:varchar(8);not null" json:"verdict"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
