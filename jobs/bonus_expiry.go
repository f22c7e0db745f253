package jobs

import (
	"log"
	"time"

	"novobicho/config"
	"novobicho/services"
)

// StartBonusExpiryScheduler sweeps expired bonuses in the background.
// Forfeiture is idempotent per bonus, so overlapping runs are harmless.
func StartBonusExpiryScheduler(cfg config.Config) {
	ticker := time.NewTicker(cfg.BonusSweepEvery)
	go func() {
		for {
			<-ticker.C
			expired, err := services.ExpireBonuses(time.Now())
			if err != nil {
				log.Printf("❌ error in bonus expiry sweep: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("🧹 expired %d bonus(es)", expired)
			}
		}
	}()
}
