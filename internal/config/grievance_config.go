package config

import "time"

const (
	// Deposits & escrow
	DefaultDeposit         int64 = 10
	StudentStartingBalance int64 = 100
	VendorStartingBalance  int64 = 50

	// Voting
	UpvoteThreshold = 5

	// Resolution
	ResolutionWindow   = 48 * time.Hour
	LatePenaltyPercent = 20

	// Reputation
	InitialReputation     = 100
	MaxReputation         = 100
	MinReputation         = 0
	GoodRatingDelta       = 5
	PoorRatingDelta       = -5
	LatePenaltyReputation = 10

	// Rewards
	OnTimeRewardPoints = 10
	SilverStarPoints   = 50
	GoldStarPoints     = 100
)

// Badge names. Monotonic: once granted, never revoked.
const (
	BadgeSilverStar = "Silver Star"
	BadgeGoldStar   = "Gold Star"
)

// Default passwords for admin-provisioned accounts.
const (
	DefaultVendorPassword    = "vendor123"
	DefaultCounselorPassword = "counselor123"
)
