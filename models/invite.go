// models/invite.go
package models

import "time"

// InviteToken backs the invite link issued when a dare targets a handle with
// no verified tag yet. Resolving the token shows the escrowed dare and walks
// the creator through claiming the tag.
type InviteToken struct {
	Token        string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"token"`
	DareID       string     `gorm:"type:uuid;not null;index" json:"dare_id"`
	TargetHandle string     `gorm:"not null" json:"target_handle"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"` // mirrors the dare's claim deadline
	CreatedAt    time.Time  `json:"created_at"`
}
