// services/expiry_scheduler.go
package services

import (
	"log"
	"time"

	"basedare-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartExpiryScheduler marks dares whose claim deadline or lifetime has passed
// as EXPIRED. Refunding the escrow is the contract's business; this only keeps
// the records honest.
func (s *DareService) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() { s.expireDueDares(time.Now()) }),
	)
}

func (s *DareService) expireDueDares(now time.Time) {
	var unclaimed []models.Dare
	err := s.DB.Where("status = ? AND claim_deadline IS NOT NULL AND claim_deadline <= ?",
		models.DareStatusAwaitingClaim, now).
		Find(&unclaimed).Error
	if err != nil {
		log.Printf("[Expiry] DB error: %v", err)
		return
	}

	var overdue []models.Dare
	err = s.DB.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		models.DareStatusActive, now).
		Find(&overdue).Error
	if err != nil {
		log.Printf("[Expiry] DB error: %v", err)
		return
	}

	// dares initialized but never funded (wallet prompt abandoned after init)
	// would otherwise sit in FUNDING forever
	var unfunded []models.Dare
	err = s.DB.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		models.DareStatusFunding, now).
		Find(&unfunded).Error
	if err != nil {
		log.Printf("[Expiry] DB error: %v", err)
		return
	}

	stale := append(append(unclaimed, overdue...), unfunded...)
	for _, d := range stale {
		d.Status = models.DareStatusExpired
		if err := s.DB.Save(&d).Error; err != nil {
			log.Printf("[Expiry] Failed to expire dare %s: %v", d.ShortID, err)
		} else {
			log.Printf("⌛ Dare expired: %s", d.ShortID)
		}
	}
}
