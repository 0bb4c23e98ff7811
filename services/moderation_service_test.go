package services

import (
	"testing"
	"time"

	"basedare-system/models"
)

func pendingClaimDare(open bool) *models.Dare {
	wallet := "0xAbCd000000000000000000000000000000000001"
	tag := "@claimer"
	now := time.Now()
	pending := models.ClaimRequestPending

	d := &models.Dare{
		ID:                 "dare-1",
		ShortID:            "do-a-backflip-abc123",
		Status:             models.DareStatusAwaitingClaim,
		IsOpenBounty:       open,
		ClaimRequestWallet: &wallet,
		ClaimRequestTag:    &tag,
		ClaimRequestedAt:   &now,
		ClaimRequestStatus: &pending,
	}
	if open {
		d.Status = models.DareStatusActive
	} else {
		handle := "@newstreamer"
		d.StreamerHandle = &handle
		deadline := now.Add(14 * 24 * time.Hour)
		d.ClaimDeadline = &deadline
	}
	return d
}

func TestApproveClaimBindsWallet(t *testing.T) {
	d := pendingClaimDare(false)
	requester := *d.ClaimRequestWallet

	if err := ApplyClaimDecision(d, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.TargetWalletAddress == nil || *d.TargetWalletAddress != requester {
		t.Fatal("approval must bind the requester wallet as target")
	}
	if d.Status != models.DareStatusActive {
		t.Fatalf("approved dare should be ACTIVE, got %s", d.Status)
	}
	if d.ClaimRequestStatus == nil || *d.ClaimRequestStatus != models.ClaimRequestApproved {
		t.Fatal("claim request should be marked approved")
	}
}

func TestRejectClaimClearsRequest(t *testing.T) {
	d := pendingClaimDare(false)

	if err := ApplyClaimDecision(d, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.TargetWalletAddress != nil {
		t.Fatal("rejection must leave the target unset")
	}
	if d.ClaimRequestWallet != nil || d.ClaimRequestTag != nil || d.ClaimRequestStatus != nil {
		t.Fatal("rejection must clear the claim request fields")
	}
	if d.Status != models.DareStatusAwaitingClaim {
		t.Fatalf("targeted unclaimed dare should return to AWAITING_CLAIM, got %s", d.Status)
	}
}

func TestRejectClaimOnOpenBountyStaysActive(t *testing.T) {
	d := pendingClaimDare(true)

	if err := ApplyClaimDecision(d, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != models.DareStatusActive {
		t.Fatalf("open bounty should stay ACTIVE after rejection, got %s", d.Status)
	}
}

func TestDecisionRequiresPendingRequest(t *testing.T) {
	d := pendingClaimDare(false)
	d.ClaimRequestStatus = nil
	if err := ApplyClaimDecision(d, true); err == nil {
		t.Fatal("expected error when no claim request is pending")
	}

	d = pendingClaimDare(false)
	approved := models.ClaimRequestApproved
	d.ClaimRequestStatus = &approved
	if err := ApplyClaimDecision(d, true); err == nil {
		t.Fatal("expected error when the request was already decided")
	}
}

func TestClaimableStatus(t *testing.T) {
	d := pendingClaimDare(false)
	d.ClaimRequestStatus = nil
	if !ClaimableStatus(d) {
		t.Fatal("awaiting-claim dare should accept claim requests")
	}

	d.Status = models.DareStatusVerified
	if ClaimableStatus(d) {
		t.Fatal("verified dare should not accept claim requests")
	}

	open := pendingClaimDare(true)
	open.ClaimRequestStatus = nil
	if !ClaimableStatus(open) {
		t.Fatal("active open bounty should accept claim requests")
	}
}
