// Package performance derives a vendor's standing from the complaints assigned
// to it. The reputation score is a running value adjusted incrementally by
// lifecycle events; everything else is recomputed from complaint history and
// cached in Redis until the next vendor-affecting mutation.
package performance

import (
	"encoding/json"
	"fmt"
	"log"

	"blockfix/backend/internal/config"
	"blockfix/backend/internal/models"
	"blockfix/backend/internal/storage"
)

// Summary is a vendor performance snapshot.
type Summary struct {
	VendorID      string   `json:"vendor_id"`
	Score         int      `json:"score"`
	CompletedJobs int      `json:"completed_jobs"`
	OnTimeRate    int      `json:"on_time_rate"`
	AverageRating float64  `json:"average_rating"`
	RewardPoints  int      `json:"reward_points"`
	Badges        []string `json:"badges"`
}

// Engine owns the vendor-side derived fields on Account: reputation score,
// reward points and badges. It holds no state of its own that could drift.
type Engine struct {
	store storage.Storage
}

// NewEngine creates a performance engine over the given store.
func NewEngine(store storage.Storage) *Engine {
	return &Engine{store: store}
}

// WithStore returns an engine writing through the given store. Used to bind
// reputation mutations to a storage transaction.
func (e *Engine) WithStore(store storage.Storage) *Engine {
	return &Engine{store: store}
}

// AdjustScore applies a delta to the vendor's running reputation score,
// clamped to [MinReputation, MaxReputation]. The delta lands as a single
// column-scoped increment, so concurrent adjustments cannot lose each other
// and no other account field is written.
func (e *Engine) AdjustScore(vendorID string, delta int) error {
	err := e.store.AdjustReputation(vendorID, delta, config.MinReputation, config.MaxReputation)
	if err != nil {
		return err
	}
	return e.invalidate(vendorID)
}

// GrantPoints adds reward points and evaluates badge thresholds. Badges are
// monotonic: a threshold crossed grants the badge once and it is never
// revoked. A single grant can cross both thresholds.
func (e *Engine) GrantPoints(vendorID string, points int) error {
	total, err := e.store.AddRewardPoints(vendorID, points)
	if err != nil {
		return err
	}
	for _, badge := range []struct {
		name string
		min  int
	}{
		{config.BadgeSilverStar, config.SilverStarPoints},
		{config.BadgeGoldStar, config.GoldStarPoints},
	} {
		if total < badge.min {
			continue
		}
		granted, err := e.store.GrantBadge(vendorID, badge.name, badge.min)
		if err != nil {
			return err
		}
		if granted {
			log.Printf("Vendor %s earned badge %q", vendorID, badge.name)
		}
	}
	return e.invalidate(vendorID)
}

// Invalidate drops the cached summary after a complaint mutation referencing
// the vendor.
func (e *Engine) Invalidate(vendorID string) error {
	return e.invalidate(vendorID)
}

// Summarize returns the vendor's performance, from cache when available.
func (e *Engine) Summarize(vendorID string) (*Summary, error) {
	if payload, err := e.store.CachedPerformance(vendorID); err == nil && payload != nil {
		var summary Summary
		if err := json.Unmarshal(payload, &summary); err == nil {
			return &summary, nil
		}
		// Unreadable cache entries are recomputed below.
	}

	vendor, err := e.store.GetAccountByID(vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Role != models.RoleVendor {
		return nil, fmt.Errorf("account %s is not a vendor", vendorID)
	}

	complaints, err := e.store.ListComplaintsByVendor(vendorID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		VendorID:     vendorID,
		Score:        vendor.ReputationScore,
		RewardPoints: vendor.RewardPoints,
		Badges:       append([]string(nil), vendor.Badges...),
	}

	ratingSum, ratingCount := 0, 0
	onTime := 0
	for _, c := range complaints {
		for _, r := range c.Ratings {
			ratingSum += r.Rating
			ratingCount++
		}
		if c.Status != models.StatusConfirmed {
			continue
		}
		summary.CompletedJobs++
		if c.CompletedAt != 0 && c.ResolutionDeadline != 0 && c.CompletedAt <= c.ResolutionDeadline {
			onTime++
		}
	}
	if summary.CompletedJobs > 0 {
		summary.OnTimeRate = onTime * 100 / summary.CompletedJobs
	}
	if ratingCount > 0 {
		summary.AverageRating = float64(ratingSum) / float64(ratingCount)
	}

	if payload, err := json.Marshal(summary); err == nil {
		if err := e.store.CachePerformance(vendorID, payload); err != nil {
			log.Printf("ERROR: Failed to cache performance for vendor %s: %v", vendorID, err)
		}
	}
	return summary, nil
}

func (e *Engine) invalidate(vendorID string) error {
	if err := e.store.InvalidatePerformance(vendorID); err != nil {
		log.Printf("ERROR: Failed to invalidate performance cache for vendor %s: %v", vendorID, err)
		return err
	}
	return nil
}
