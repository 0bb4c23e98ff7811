package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"basedare-system/chain"
	"basedare-system/models"

	"gorm.io/gorm"
)

// FundingVerifier owns the PendingFunding queue: every registered tx hash is
// confirmed on chain before its dare leaves FUNDING. This is also the desync
// reconciliation path: support inserts a PendingFunding row for a tx the
// client failed to register and the worker does the rest.
type FundingVerifier struct {
	DB          *gorm.DB
	Verifier    *chain.Verifier
	MaxAttempts int
}

func NewFundingVerifier(db *gorm.DB, verifier *chain.Verifier) *FundingVerifier {
	return &FundingVerifier{
		DB:          db,
		Verifier:    verifier,
		MaxAttempts: 90, // with a 10s poll that is 15 minutes, plenty for an L2
	}
}

// Poll runs until ctx is done.
func (w *FundingVerifier) Poll(ctx context.Context, interval time.Duration) {
	log.Println("Starting funding verification worker...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Funding verification worker stopped.")
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *FundingVerifier) processPending(ctx context.Context) {
	var pending []models.PendingFunding
	if err := w.DB.Where("status = ?", models.PendingFundingPending).
		Order("created_at ASC").Limit(50).
		Find(&pending).Error; err != nil {
		log.Printf("❌ [FUND_VERIFY] DB error: %v", err)
		return
	}

	for i := range pending {
		w.verifyOne(ctx, &pending[i])
	}
}

func (w *FundingVerifier) verifyOne(ctx context.Context, p *models.PendingFunding) {
	var dare models.Dare
	if err := w.DB.First(&dare, "id = ?", p.DareID).Error; err != nil {
		w.failPending(p, "dare record missing")
		return
	}

	err := w.Verifier.CheckFunding(ctx, p.TxHash, dare.FunderWallet, dare.OnChainDareID)
	switch {
	case err == nil:
		w.confirm(p, &dare)
	case errors.Is(err, chain.ErrTxNotFound):
		p.Attempts++
		if p.Attempts >= w.MaxAttempts {
			w.failPending(p, "tx never confirmed")
			return
		}
		w.DB.Save(p)
	default:
		// reverted, wrong sender or wrong dare: permanent
		log.Printf("❌ [FUND_VERIFY] Tx %s permanently failed for dare %s: %v", p.TxHash, dare.ShortID, err)
		w.failPending(p, err.Error())
	}
}

func (w *FundingVerifier) confirm(p *models.PendingFunding, dare *models.Dare) {
	err := w.DB.Transaction(func(tx *gorm.DB) error {
		p.Status = models.PendingFundingConfirmed
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		if dare.Status != models.DareStatusFunding {
			return nil // already promoted (duplicate registration)
		}
		txHash := p.TxHash
		dare.FundingTxHash = &txHash
		if !dare.IsOpenBounty && dare.TargetWalletAddress == nil {
			dare.Status = models.DareStatusAwaitingClaim
		} else {
			dare.Status = models.DareStatusActive
		}
		return tx.Save(dare).Error
	})
	if err != nil {
		log.Printf("❌ [FUND_VERIFY] Failed to confirm funding for dare %s: %v", dare.ShortID, err)
		return
	}
	log.Printf("✅ Funding confirmed for dare %s (tx %s), now %s", dare.ShortID, p.TxHash, dare.Status)
}

func (w *FundingVerifier) failPending(p *models.PendingFunding, reason string) {
	p.Status = models.PendingFundingFailed
	p.LastErr = &reason
	if err := w.DB.Save(p).Error; err != nil {
		log.Printf("❌ [FUND_VERIFY] Failed to mark registration %s failed: %v", p.TxHash, err)
	}
}
