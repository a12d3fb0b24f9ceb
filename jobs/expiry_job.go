package jobs

import (
	"log"

	"github.com/infinyhq/infiny_backend/services"
)

var referralService *services.ReferralService

func InitReferralJobs(s *services.ReferralService) {
	referralService = s
}

// ProcessExpiredReferrals rejects pending referrals whose response token has
// expired and notifies the requesters. Scheduled from main.
func ProcessExpiredReferrals() {
	if referralService == nil {
		log.Println("Referral service not initialized, skipping expiry sweep.")
		return
	}

	processed, err := referralService.SweepExpired()
	if err != nil {
		log.Printf("Error sweeping expired referrals: %v", err)
		return
	}

	if processed > 0 {
		log.Printf("Rejected %d expired referral(s).", processed)
	}
}
