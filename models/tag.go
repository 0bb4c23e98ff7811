// models/tag.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// TagStatus is the verification lifecycle of a wallet↔handle binding
type TagStatus string

const (
	TagStatusPending  TagStatus = "PENDING"
	TagStatusVerified TagStatus = "VERIFIED"
	TagStatusRejected TagStatus = "REJECTED"
	TagStatusRevoked  TagStatus = "REVOKED"
)

// Verification methods. OAuth platforms carry the provider name; Kick has no
// OAuth API so it goes through the manual code-on-profile flow.
const (
	VerifyMethodTwitch  = "twitch"
	VerifyMethodYouTube = "youtube"
	VerifyMethodTwitter = "twitter"
	VerifyMethodKick    = "KICK"
)

// Tag links a wallet to a public creator handle.
// At most one VERIFIED tag may exist per normalized handle; a wallet may hold many tags.
type Tag struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Tag           string `gorm:"not null" json:"tag"`
	NormalizedTag string `gorm:"index;not null" json:"-"` // case/ascii-folded, uniqueness key
	WalletAddress string `gorm:"type:varchar(64);index;not null" json:"wallet_address"`

	Platform           string    `gorm:"type:varchar(32);not null" json:"platform"`
	VerificationMethod string    `gorm:"type:varchar(32);not null" json:"verification_method"`
	Status             TagStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`

	// OAuth-asserted identity (set when the claim came through a provider)
	PlatformUserID *string `json:"platform_user_id,omitempty"`
	PlatformHandle *string `json:"platform_handle,omitempty"`

	// Manual Kick flow
	KickUsername         *string `json:"kick_username,omitempty"`
	KickVerificationCode *string `gorm:"type:varchar(16)" json:"kick_verification_code,omitempty"`

	ProfileURL *string `gorm:"type:text" json:"profile_url,omitempty"`

	ModeratorNote *string    `gorm:"type:text" json:"moderator_note,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsOAuthMethod reports whether the tag was claimed through a provider rather
// than the manual code flow.
func (t *Tag) IsOAuthMethod() bool {
	return t.VerificationMethod != VerifyMethodKick
}
