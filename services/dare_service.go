// services/dare_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"basedare-system/models"
	"basedare-system/orchestrator"
	"basedare-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// DefaultClaimWindow is how long an unclaimed targeted dare stays escrowed
// before expiry.
const DefaultClaimWindow = 14 * 24 * time.Hour

type DareService struct {
	DB          *gorm.DB
	FrontendURL string
}

func NewDareService(db *gorm.DB, frontendURL string) *DareService {
	return &DareService{DB: db, FrontendURL: frontendURL}
}

// --- Creation flow ---

// CreateDareSimulated handles POST /api/bounties — simulation-mode creation,
// no chain interaction, the synchronous response is final.
func (s *DareService) CreateDareSimulated(c *fiber.Ctx) error {
	form, err := s.parseForm(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	dare, invite, err := s.buildDare(form)
	if err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to create dare")
	}
	// no funding tx to wait for: dare is live immediately
	if dare.TargetWalletAddress != nil || dare.IsOpenBounty {
		dare.Status = models.DareStatusActive
	} else {
		dare.Status = models.DareStatusAwaitingClaim
	}

	if err := s.persistDare(dare, invite); err != nil {
		log.Printf("DB error creating simulated dare: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to create dare")
	}

	return utils.Created(c, s.receiptFor(dare, invite))
}

// InitDare handles POST /api/bounties/init — live-mode pre-registration.
// Nothing has moved on chain yet; this is fully safe to retry.
func (s *DareService) InitDare(c *fiber.Ctx) error {
	form, err := s.parseForm(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	dare, invite, err := s.buildDare(form)
	if err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to init dare")
	}
	dare.Status = models.DareStatusFunding

	if err := s.persistDare(dare, invite); err != nil {
		log.Printf("DB error initializing dare: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to init dare")
	}

	target := zeroAddress
	if dare.TargetWalletAddress != nil {
		target = *dare.TargetWalletAddress
	}
	referrer := zeroAddress
	if dare.ReferrerWallet != nil {
		referrer = *dare.ReferrerWallet
	}

	return utils.Created(c, orchestrator.InitResult{
		DareID:          dare.ID,
		OnChainDareID:   dare.OnChainDareID,
		TargetAddress:   target,
		ReferrerAddress: referrer,
	})
}

// RegisterFunding handles POST /api/bounties/register. The tx hash is recorded
// and handed to the funding verify worker; verification is asynchronous so a
// slow RPC can never desync a dare that did get funded.
func (s *DareService) RegisterFunding(c *fiber.Ctx) error {
	var req struct {
		DareID string `json:"dare_id"`
		TxHash string `json:"tx_hash"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.DareID == "" || !strings.HasPrefix(req.TxHash, "0x") {
		return utils.Fail(c, fiber.StatusBadRequest, "dare_id and tx_hash are required")
	}

	var dare models.Dare
	if err := s.DB.First(&dare, "id = ?", req.DareID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "dare not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	if dare.Status != models.DareStatusFunding {
		return utils.Fail(c, fiber.StatusConflict, fmt.Sprintf("dare is %s, not awaiting funding", dare.Status))
	}

	dare.FundingTxHash = &req.TxHash
	if err := s.DB.Save(&dare).Error; err != nil {
		log.Printf("DB error recording funding tx for dare %s: %v", dare.ID, err)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to record funding tx")
	}

	pending := models.PendingFunding{DareID: dare.ID, TxHash: req.TxHash}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}},
		DoNothing: true,
	}).Create(&pending).Error; err != nil {
		log.Printf("DB error queueing funding verification for dare %s: %v", dare.ID, err)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to queue funding verification")
	}

	invite := s.inviteFor(dare.ID)
	return utils.OK(c, s.receiptFor(&dare, invite))
}

// --- Reads ---

// GetDareByShortID handles GET /api/bounties/:short_id
func (s *DareService) GetDareByShortID(c *fiber.Ctx) error {
	var dare models.Dare
	if err := s.DB.First(&dare, "short_id = ?", c.Params("short_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "dare not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	return utils.OK(c, dare)
}

// GetNearbyDares handles GET /api/dares/nearby?lat=&lng=&radius=
func (s *DareService) GetNearbyDares(c *fiber.Ctx) error {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "lat and lng are required")
	}
	radius, err := strconv.ParseFloat(c.Query("radius", "25"), 64)
	if err != nil || radius <= 0 {
		radius = 25
	}

	var candidates []models.Dare
	if err := s.DB.
		Where("lat IS NOT NULL AND lng IS NOT NULL").
		Where("status IN ?", []models.DareStatus{
			models.DareStatusActive,
			models.DareStatusAwaitingClaim,
			models.DareStatusPendingReview,
		}).
		Find(&candidates).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	nearby := make([]models.Dare, 0)
	for _, d := range candidates {
		dist := utils.HaversineKM(lat, lng, *d.Lat, *d.Lng)
		if dist > radius {
			continue
		}
		// the dare's own discovery radius also has to cover the viewer
		if d.RadiusKM != nil && dist > *d.RadiusKM {
			continue
		}
		nearby = append(nearby, d)
	}

	return utils.OK(c, nearby)
}

// ResolveInvite handles GET /api/invite/:token
func (s *DareService) ResolveInvite(c *fiber.Ctx) error {
	var invite models.InviteToken
	if err := s.DB.First(&invite, "token = ?", c.Params("token")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "invite not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	if invite.ExpiresAt != nil && invite.ExpiresAt.Before(time.Now()) {
		return utils.Fail(c, fiber.StatusGone, "invite has expired")
	}

	var dare models.Dare
	if err := s.DB.First(&dare, "id = ?", invite.DareID).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	return utils.OK(c, fiber.Map{
		"target_handle": invite.TargetHandle,
		"dare":          dare,
	})
}

// --- Proof & votes ---

// SubmitProof handles POST /api/bounties/:short_id/proof (multipart).
// Moves an active dare into the moderation queue.
func (s *DareService) SubmitProof(c *fiber.Ctx) error {
	var dare models.Dare
	if err := s.DB.First(&dare, "short_id = ?", c.Params("short_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "dare not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	if dare.Status != models.DareStatusActive {
		return utils.Fail(c, fiber.StatusConflict, fmt.Sprintf("dare is %s, proof not accepted", dare.Status))
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "proof file is required")
	}

	proofURL, err := utils.UploadProofToR2(fileHeader, dare.ID)
	if err != nil {
		log.Printf("Failed to upload proof for dare %s: %v", dare.ID, err)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to store proof")
	}

	dare.ProofURL = &proofURL
	if note := strings.TrimSpace(c.FormValue("note")); note != "" {
		dare.ProofNote = &note
	}
	dare.Status = models.DareStatusPendingReview

	if err := s.DB.Save(&dare).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to update dare")
	}

	log.Printf("📸 Proof submitted for dare %s, now pending review", dare.ShortID)
	return utils.OK(c, dare)
}

// CastVote handles POST /api/bounties/:short_id/vote — one verdict per wallet
// per dare, re-voting overwrites.
func (s *DareService) CastVote(c *fiber.Ctx) error {
	var req struct {
		Wallet  string             `json:"wallet"`
		Verdict models.VoteVerdict `json:"verdict"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Wallet == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "wallet is required")
	}
	if req.Verdict != models.VoteApprove && req.Verdict != models.VoteReject {
		return utils.Fail(c, fiber.StatusBadRequest, "verdict must be approve or reject")
	}

	var dare models.Dare
	if err := s.DB.First(&dare, "short_id = ?", c.Params("short_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "dare not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	if dare.Status != models.DareStatusPendingReview {
		return utils.Fail(c, fiber.StatusConflict, "voting is only open while the dare is under review")
	}

	vote := models.DareVote{
		DareID:      dare.ID,
		VoterWallet: strings.ToLower(req.Wallet),
		Verdict:     req.Verdict,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dare_id"}, {Name: "voter_wallet"}},
			DoUpdates: clause.AssignmentColumns([]string{"verdict", "updated_at"}),
		}).Create(&vote).Error; err != nil {
			return err
		}
		// recount rather than increment so re-votes stay consistent
		var approves, rejects int64
		if err := tx.Model(&models.DareVote{}).
			Where("dare_id = ? AND verdict = ?", dare.ID, models.VoteApprove).
			Count(&approves).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DareVote{}).
			Where("dare_id = ? AND verdict = ?", dare.ID, models.VoteReject).
			Count(&rejects).Error; err != nil {
			return err
		}
		return tx.Model(&models.Dare{}).Where("id = ?", dare.ID).
			Updates(map[string]interface{}{"approve_votes": approves, "reject_votes": rejects}).Error
	})
	if err != nil {
		log.Printf("DB error recording vote on dare %s: %v", dare.ID, err)
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to record vote")
	}

	if err := s.DB.First(&dare, "id = ?", dare.ID).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}
	return utils.OK(c, fiber.Map{
		"approve_votes":   dare.ApproveVotes,
		"reject_votes":    dare.RejectVotes,
		"total_votes":     dare.TotalVotes(),
		"approve_percent": dare.ApprovePercent(),
	})
}

// RequestClaim handles POST /api/bounties/:short_id/claim-request — a wallet
// asking to be assigned an open or unclaimed dare, pending moderator approval.
func (s *DareService) RequestClaim(c *fiber.Ctx) error {
	var req struct {
		Wallet string `json:"wallet"`
		Tag    string `json:"tag"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Wallet == "" || req.Tag == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "wallet and tag are required")
	}

	var dare models.Dare
	if err := s.DB.First(&dare, "short_id = ?", c.Params("short_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "dare not found")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "DB error")
	}

	if !ClaimableStatus(&dare) {
		return utils.Fail(c, fiber.StatusConflict, "dare is not open for claims")
	}
	if dare.ClaimRequestStatus != nil && *dare.ClaimRequestStatus == models.ClaimRequestPending {
		return utils.Fail(c, fiber.StatusConflict, "a claim request is already pending on this dare")
	}

	now := time.Now()
	pending := models.ClaimRequestPending
	dare.ClaimRequestWallet = &req.Wallet
	dare.ClaimRequestTag = &req.Tag
	dare.ClaimRequestedAt = &now
	dare.ClaimRequestStatus = &pending

	if err := s.DB.Save(&dare).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "failed to record claim request")
	}
	return utils.OK(c, dare)
}

// --- internals ---

func (s *DareService) parseForm(c *fiber.Ctx) (*orchestrator.DareForm, error) {
	var form orchestrator.DareForm
	if err := c.BodyParser(&form); err != nil {
		return nil, errors.New("invalid request body")
	}
	// re-validate server-side; the client gate is advisory only
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if form.FunderWallet == "" {
		return nil, errors.New("funder_wallet is required")
	}
	return &form, nil
}

// buildDare resolves targeting and assembles the record; status is set by the
// caller depending on the creation mode.
func (s *DareService) buildDare(form *orchestrator.DareForm) (*models.Dare, *models.InviteToken, error) {
	now := time.Now()
	expires := now.Add(form.Duration())

	dare := &models.Dare{
		ID:           uuid.NewString(),
		ShortID:      utils.ShortID(form.Title),
		Title:        strings.TrimSpace(form.Title),
		Description:  form.Description,
		BountyAmount: form.Amount,
		AmountWei:    orchestrator.AmountInUnits(form.Amount, 6).String(),
		Currency:     models.DareCurrency,
		FunderWallet: strings.ToLower(form.FunderWallet),
		ExpiresAt:    &expires,
		IsOpenBounty: form.IsOpenBounty(),
	}

	if form.Nearby && form.Lat != nil && form.Lng != nil {
		dare.Lat, dare.Lng = form.Lat, form.Lng
		dare.RadiusKM = &form.RadiusKM
		if form.LocationLabel != "" {
			label := form.LocationLabel
			dare.LocationLabel = &label
		}
	}

	if form.ReferrerCode != "" {
		var refTag models.Tag
		err := s.DB.First(&refTag, "normalized_tag = ? AND status = ?",
			utils.NormalizeTag(form.ReferrerCode), models.TagStatusVerified).Error
		if err == nil {
			wallet := refTag.WalletAddress
			dare.ReferrerWallet = &wallet
		}
	}

	var invite *models.InviteToken
	if !dare.IsOpenBounty {
		handle := strings.TrimSpace(form.StreamerTag)
		dare.StreamerHandle = &handle

		var tag models.Tag
		err := s.DB.First(&tag, "normalized_tag = ? AND status = ?",
			utils.NormalizeTag(handle), models.TagStatusVerified).Error
		switch {
		case err == nil:
			wallet := tag.WalletAddress
			dare.TargetWalletAddress = &wallet
		case errors.Is(err, gorm.ErrRecordNotFound):
			// unclaimed target: escrow waits behind a claim deadline
			deadline := now.Add(DefaultClaimWindow)
			dare.ClaimDeadline = &deadline
			invite = &models.InviteToken{
				Token:        uuid.NewString(),
				DareID:       dare.ID,
				TargetHandle: handle,
				ExpiresAt:    &deadline,
			}
		default:
			return nil, nil, err
		}
	}

	return dare, invite, nil
}

// persistDare allocates the next on-chain id and inserts inside one
// transaction. Concurrent creations can race on MAX+1 and the unique index
// fails the loser, so retry with a fresh id instead of surfacing the conflict.
func (s *DareService) persistDare(dare *models.Dare, invite *models.InviteToken) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			var nextID int64
			if err := tx.Model(&models.Dare{}).
				Select("COALESCE(MAX(on_chain_dare_id), 0) + 1").Scan(&nextID).Error; err != nil {
				return err
			}
			dare.OnChainDareID = nextID

			if err := tx.Create(dare).Error; err != nil {
				return err
			}
			if invite != nil {
				return tx.Create(invite).Error
			}
			return nil
		})
		if err == nil || !isDuplicateKey(err) {
			return err
		}
	}
	return err
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key")
}

func (s *DareService) inviteFor(dareID string) *models.InviteToken {
	var invite models.InviteToken
	if err := s.DB.First(&invite, "dare_id = ?", dareID).Error; err != nil {
		return nil
	}
	return &invite
}

func (s *DareService) receiptFor(dare *models.Dare, invite *models.InviteToken) orchestrator.DareReceipt {
	receipt := orchestrator.DareReceipt{
		DareID:        dare.ID,
		ShortID:       dare.ShortID,
		OpenBounty:    dare.IsOpenBounty,
		AwaitingClaim: !dare.IsOpenBounty && dare.TargetWalletAddress == nil,
		ClaimDeadline: dare.ClaimDeadline,
	}
	if receipt.AwaitingClaim && invite != nil {
		receipt.InviteLink = fmt.Sprintf("%s/claim?invite=%s", s.FrontendURL, invite.Token)
	}
	return receipt
}

// ClaimableStatus reports whether a dare can accept a claim request: open
// bounties while live, or targeted dares whose handle is still unbound.
func ClaimableStatus(d *models.Dare) bool {
	switch d.Status {
	case models.DareStatusAwaitingClaim:
		return true
	case models.DareStatusActive:
		return d.IsOpenBounty && d.TargetWalletAddress == nil
	default:
		return false
	}
}
