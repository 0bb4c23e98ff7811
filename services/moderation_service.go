// services/moderation_service.go
package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"basedare-system/models"
	"basedare-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Three independent decision queues share one shape: list pending, review one
// item, submit a binary decision. Content and claim queues sit behind the
// moderator wallet allowlist; the tag queue behind the admin secret.
type ModerationService struct {
	DB *gorm.DB
}

func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{DB: db}
}

// --- Content moderation (dare proof review) ---

// ListPendingContent handles GET /api/admin/moderate — dares under review
// whose community vote tally meets the threshold.
func (s *ModerationService) ListPendingContent(c *fiber.Ctx) error {
	var dares []models.Dare
	if err := s.DB.Where("status = ?", models.DareStatusPendingReview).
		Order("updated_at ASC").
		Find(&dares).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	ready := make([]models.Dare, 0, len(dares))
	for _, d := range dares {
		if d.MeetsVoteThreshold() {
			ready = append(ready, d)
		}
	}
	return utils.OK(c, ready)
}

// DecideContent handles POST /api/admin/moderate.
func (s *ModerationService) DecideContent(c *fiber.Ctx) error {
	var req struct {
		DareID   string `json:"dare_id"`
		Decision string `json:"decision"` // APPROVE | REJECT
		Note     string `json:"note,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	approve, err := parseDecision(req.Decision)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	var dare models.Dare
	if err := s.DB.First(&dare, "id = ?", req.DareID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "dare not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	if dare.Status != models.DareStatusPendingReview {
		return utils.Fail(c, fiber.StatusConflict, "dare is not pending review")
	}
	if !dare.MeetsVoteThreshold() {
		return utils.Fail(c, fiber.StatusConflict, "community vote threshold not met yet")
	}

	if approve {
		dare.Status = models.DareStatusVerified
	} else {
		dare.Status = models.DareStatusRejected
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		dare.ProofNote = &note
	}

	if err := s.DB.Save(&dare).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to save decision")
	}
	log.Printf("⚖️ Dare %s content decision: %s (moderator %v)", dare.ShortID, dare.Status, c.Locals("moderator_wallet"))
	return utils.OK(c, dare)
}

// --- Claim-request moderation ---

// ListPendingClaims handles GET /api/admin/claims.
func (s *ModerationService) ListPendingClaims(c *fiber.Ctx) error {
	var dares []models.Dare
	if err := s.DB.Where("claim_request_status = ?", models.ClaimRequestPending).
		Order("claim_requested_at ASC").
		Find(&dares).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	return utils.OK(c, dares)
}

// DecideClaim handles PUT /api/admin/claims. Approval binds the requesting
// wallet as the payout target; rejection clears the claim fields and returns
// the dare to its prior state. Either way the dare leaves the pending list.
func (s *ModerationService) DecideClaim(c *fiber.Ctx) error {
	var req struct {
		DareID   string `json:"dare_id"`
		Decision string `json:"decision"`
		Reason   string `json:"reason,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	approve, err := parseDecision(req.Decision)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	var dare models.Dare
	if err := s.DB.First(&dare, "id = ?", req.DareID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "dare not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	if err := ApplyClaimDecision(&dare, approve); err != nil {
		return utils.Fail(c, fiber.StatusConflict, err.Error())
	}

	if err := s.DB.Save(&dare).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to save decision")
	}
	log.Printf("⚖️ Claim request on dare %s: approve=%v", dare.ShortID, approve)
	return utils.OK(c, dare)
}

// ApplyClaimDecision mutates the dare per the moderator's verdict. Kept free
// of fiber and gorm so the lifecycle is directly testable.
func ApplyClaimDecision(dare *models.Dare, approve bool) error {
	if dare.ClaimRequestStatus == nil || *dare.ClaimRequestStatus != models.ClaimRequestPending {
		return errors.New("dare has no pending claim request")
	}

	if approve {
		wallet := *dare.ClaimRequestWallet
		status := models.ClaimRequestApproved
		dare.TargetWalletAddress = &wallet
		dare.Status = models.DareStatusActive
		dare.ClaimDeadline = nil
		dare.ClaimRequestStatus = &status
		return nil
	}

	// rejection: clear the request and fall back to the prior state
	dare.ClaimRequestWallet = nil
	dare.ClaimRequestTag = nil
	dare.ClaimRequestedAt = nil
	dare.ClaimRequestStatus = nil
	if !dare.IsOpenBounty && dare.TargetWalletAddress == nil {
		dare.Status = models.DareStatusAwaitingClaim
	} else {
		dare.Status = models.DareStatusActive
	}
	return nil
}

// --- Tag moderation (admin-secret scope) ---

// ListPendingTags handles GET /api/admin/tags — pending tags with the expected
// verification code and a deep link for the moderator to eyeball the profile.
func (s *ModerationService) ListPendingTags(c *fiber.Ctx) error {
	var tags []models.Tag
	if err := s.DB.Where("status = ?", models.TagStatusPending).
		Order("created_at ASC").
		Find(&tags).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	type pendingTag struct {
		models.Tag
		ExpectedCode string `json:"expected_code,omitempty"`
		ProfileLink  string `json:"profile_link,omitempty"`
	}
	out := make([]pendingTag, len(tags))
	for i, t := range tags {
		out[i] = pendingTag{Tag: t}
		if t.KickVerificationCode != nil {
			out[i].ExpectedCode = *t.KickVerificationCode
		}
		if t.ProfileURL != nil {
			out[i].ProfileLink = *t.ProfileURL
		}
	}
	return utils.OK(c, out)
}

// DecideTag handles PUT /api/admin/tags — manual verify/reject/revoke.
func (s *ModerationService) DecideTag(c *fiber.Ctx) error {
	var req struct {
		TagID    string `json:"tag_id"`
		Decision string `json:"decision"` // VERIFY | REJECT | REVOKE
		Note     string `json:"note,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var tag models.Tag
	if err := s.DB.First(&tag, "id = ?", req.TagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "tag not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	switch strings.ToUpper(req.Decision) {
	case "VERIFY", "APPROVE":
		if tag.Status != models.TagStatusPending {
			return utils.Fail(c, fiber.StatusConflict, "tag is not pending")
		}
		// one verified tag per normalized handle
		var count int64
		if err := s.DB.Model(&models.Tag{}).
			Where("normalized_tag = ? AND status = ? AND id <> ?",
				tag.NormalizedTag, models.TagStatusVerified, tag.ID).
			Count(&count).Error; err != nil {
			return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
		}
		if count > 0 {
			return utils.Fail(c, fiber.StatusConflict, "handle already has a verified tag")
		}
		now := time.Now()
		tag.Status = models.TagStatusVerified
		tag.VerifiedAt = &now
	case "REJECT":
		if tag.Status != models.TagStatusPending {
			return utils.Fail(c, fiber.StatusConflict, "tag is not pending")
		}
		tag.Status = models.TagStatusRejected
	case "REVOKE":
		if tag.Status != models.TagStatusVerified {
			return utils.Fail(c, fiber.StatusConflict, "only verified tags can be revoked")
		}
		tag.Status = models.TagStatusRevoked
	default:
		return utils.Fail(c, fiber.StatusBadRequest, "decision must be VERIFY, REJECT or REVOKE")
	}

	if note := strings.TrimSpace(req.Note); note != "" {
		tag.ModeratorNote = &note
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&tag).Error; err != nil {
			return err
		}
		if tag.Status == models.TagStatusVerified {
			return BindAwaitingDares(tx, &tag)
		}
		return nil
	})
	if err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to save decision")
	}

	log.Printf("⚖️ Tag @%s decision: %s", tag.Tag, tag.Status)
	return utils.OK(c, tag)
}

func parseDecision(d string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(d)) {
	case "APPROVE":
		return true, nil
	case "REJECT":
		return false, nil
	default:
		return false, errors.New("decision must be APPROVE or REJECT")
	}
}
