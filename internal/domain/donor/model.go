package donor

import "time"

// Tier is a classification band derived purely from lifetime spend.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// Lifetime-amount thresholds, in whole IDR.
const (
	SilverThreshold   = 200_000
	GoldThreshold     = 500_000
	PlatinumThreshold = 1_000_000
	DiamondThreshold  = 2_000_000
)

// ClassifyTier is a pure step function over the lifetime amount. The tier is
// always recomputed fully from the running total, never incremented on its
// own, so a drifted aggregate self-heals on the next completed payment.
func ClassifyTier(lifetimeAmount int64) Tier {
	switch {
	case lifetimeAmount >= DiamondThreshold:
		return TierDiamond
	case lifetimeAmount >= PlatinumThreshold:
		return TierPlatinum
	case lifetimeAmount >= GoldThreshold:
		return TierGold
	case lifetimeAmount >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// Aggregate is the per-player, per-streamer running donation roll-up. It is
// keyed by (streamer id, game id) because display names are mutable and
// self-reported. Aggregates are monotonic accumulators: created on the first
// completed payment, never deleted.
type Aggregate struct {
	ID         string
	StreamerID string
	GameID     string

	PlayerName   string
	GameNickname string
	Email        string
	Phone        string

	TotalDonations  int
	LifetimeAmount  int64
	GamesPlayed     int
	MvpWins         int
	FavoriteRole    string
	Tier            Tier
	FirstDonationAt time.Time
	LastDonationAt  time.Time

	// Moderation fields are operator-owned; the payment path never touches
	// them.
	IsBlocked bool
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Donation is one completed payment attributed to a streamer.
type Donation struct {
	ID         string
	StreamerID string

	DonorName    string
	DonorGameID  string
	Amount       int64
	Currency     string
	DonationType string

	QueueEntryID  string
	OrderID       string
	PaymentMethod string

	CreatedAt time.Time
}

const DonationTypeMabar = "mabar"
