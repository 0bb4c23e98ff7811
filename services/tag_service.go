// services/tag_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"basedare-system/models"
	"basedare-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var kickCodePattern = regexp.MustCompile(`^BASEDARE-[A-Z0-9]{6}$`)

type TagService struct {
	DB *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{DB: db}
}

// QueryTags handles GET /api/tags?tag=<t> (availability check) and
// GET /api/tags?wallet=<addr> (list a wallet's tags).
func (s *TagService) QueryTags(c *fiber.Ctx) error {
	if tag := c.Query("tag"); tag != "" {
		return s.checkAvailability(c, tag)
	}
	if wallet := c.Query("wallet"); wallet != "" {
		var tags []models.Tag
		if err := s.DB.Where("LOWER(wallet_address) = ?", strings.ToLower(wallet)).
			Find(&tags).Error; err != nil {
			return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
		}
		return utils.OK(c, tags)
	}
	return utils.Fail(c, fiber.StatusBadRequest, "tag or wallet query parameter is required")
}

// checkAvailability is advisory only — final uniqueness is enforced at
// submission time. The same tag string always yields the same answer until a
// claim lands.
func (s *TagService) checkAvailability(c *fiber.Ctx, tag string) error {
	normalized := utils.NormalizeTag(tag)
	if len(normalized) < 2 {
		return utils.Fail(c, fiber.StatusBadRequest, "tag must be at least 2 characters")
	}

	var count int64
	if err := s.DB.Model(&models.Tag{}).
		Where("normalized_tag = ? AND status = ?", normalized, models.TagStatusVerified).
		Count(&count).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	return utils.OK(c, fiber.Map{"tag": tag, "available": count == 0})
}

// SubmitClaim handles POST /api/tags — a wallet claiming a handle, via an
// OAuth-asserted platform identity or the manual Kick code flow. The OAuth
// handle match may auto-verify; everything else lands PENDING for a moderator.
func (s *TagService) SubmitClaim(c *fiber.Ctx) error {
	var req struct {
		WalletAddress  string `json:"wallet_address"`
		Tag            string `json:"tag"`
		Platform       string `json:"platform"`
		PlatformUserID string `json:"platform_user_id,omitempty"`
		PlatformHandle string `json:"platform_handle,omitempty"`
		KickUsername   string `json:"kick_username,omitempty"`
		KickCode       string `json:"kick_code,omitempty"`
		ProfileURL     string `json:"profile_url,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.WalletAddress == "" || req.Tag == "" || req.Platform == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "wallet_address, tag and platform are required")
	}

	normalized := utils.NormalizeTag(req.Tag)
	if len(normalized) < 2 {
		return utils.Fail(c, fiber.StatusBadRequest, "tag must be at least 2 characters")
	}

	// uniqueness against verified tags, the claim gate the client only previews
	var count int64
	if err := s.DB.Model(&models.Tag{}).
		Where("normalized_tag = ? AND status = ?", normalized, models.TagStatusVerified).
		Count(&count).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	if count > 0 {
		return utils.Fail(c, fiber.StatusConflict, "tag is already verified by another wallet")
	}

	tag := models.Tag{
		ID:            uuid.NewString(),
		Tag:           strings.TrimPrefix(strings.TrimSpace(req.Tag), "@"),
		NormalizedTag: normalized,
		WalletAddress: strings.ToLower(req.WalletAddress),
		Platform:      strings.ToLower(req.Platform),
		Status:        models.TagStatusPending,
	}
	if req.ProfileURL != "" {
		tag.ProfileURL = &req.ProfileURL
	}

	if strings.EqualFold(req.Platform, "kick") {
		// manual flow: the code must already be on the public profile
		tag.VerificationMethod = models.VerifyMethodKick
		if req.KickUsername == "" || req.KickCode == "" {
			return utils.Fail(c, fiber.StatusBadRequest, "kick_username and kick_code are required for kick claims")
		}
		if !kickCodePattern.MatchString(req.KickCode) {
			return utils.Fail(c, fiber.StatusBadRequest, "kick_code format is invalid")
		}
		tag.KickUsername = &req.KickUsername
		tag.KickVerificationCode = &req.KickCode
		if tag.ProfileURL == nil {
			url := fmt.Sprintf("https://kick.com/%s", req.KickUsername)
			tag.ProfileURL = &url
		}
	} else {
		tag.VerificationMethod = strings.ToLower(req.Platform)
		if req.PlatformUserID == "" || req.PlatformHandle == "" {
			return utils.Fail(c, fiber.StatusBadRequest, "platform identity is required for oauth claims")
		}
		tag.PlatformUserID = &req.PlatformUserID
		tag.PlatformHandle = &req.PlatformHandle

		// auto-verify when the provider-asserted handle matches the claim
		if utils.NormalizeTag(req.PlatformHandle) == normalized {
			now := time.Now()
			tag.Status = models.TagStatusVerified
			tag.VerifiedAt = &now
		}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tag).Error; err != nil {
			return err
		}
		if tag.Status == models.TagStatusVerified {
			return BindAwaitingDares(tx, &tag)
		}
		return nil
	})
	if err != nil {
		log.Printf("DB error creating tag claim %q: %v", req.Tag, err)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to submit claim")
	}

	if tag.Status == models.TagStatusVerified {
		log.Printf("✅ Tag @%s auto-verified via %s for wallet %s", tag.Tag, tag.Platform, tag.WalletAddress)
	} else {
		log.Printf("⏳ Tag @%s pending moderator verification (%s)", tag.Tag, tag.VerificationMethod)
	}
	return utils.Created(c, tag)
}

// NewKickCode handles GET /api/tags/kick-code — issues a fresh verification
// code for the manual flow.
func (s *TagService) NewKickCode(c *fiber.Ctx) error {
	code, err := utils.GenerateKickCode()
	if err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to generate code")
	}
	return utils.OK(c, fiber.Map{"code": code})
}

// GetCreator handles GET /api/creator/:tag — the verified tag plus its dares.
func (s *TagService) GetCreator(c *fiber.Ctx) error {
	normalized := utils.NormalizeTag(c.Params("tag"))

	var tag models.Tag
	err := s.DB.First(&tag, "normalized_tag = ? AND status = ?", normalized, models.TagStatusVerified).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "creator not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	var dares []models.Dare
	if err := s.DB.
		Where("LOWER(target_wallet_address) = ?", strings.ToLower(tag.WalletAddress)).
		Order("created_at DESC").
		Find(&dares).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	return utils.OK(c, fiber.Map{"tag": tag, "dares": dares})
}

// BindAwaitingDares points every awaiting-claim dare targeting the tag's
// handle at the newly verified wallet and activates it.
func BindAwaitingDares(tx *gorm.DB, tag *models.Tag) error {
	var dares []models.Dare
	if err := tx.Where("status = ?", models.DareStatusAwaitingClaim).
		Where("streamer_handle IS NOT NULL").
		Find(&dares).Error; err != nil {
		return err
	}

	for i := range dares {
		d := &dares[i]
		if utils.NormalizeTag(*d.StreamerHandle) != tag.NormalizedTag {
			continue
		}
		wallet := tag.WalletAddress
		d.TargetWalletAddress = &wallet
		d.Status = models.DareStatusActive
		d.ClaimDeadline = nil
		if err := tx.Save(d).Error; err != nil {
			return err
		}
		log.Printf("🔗 Dare %s bound to @%s (%s)", d.ShortID, tag.Tag, wallet)
	}
	return nil
}
