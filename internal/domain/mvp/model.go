package mvp

import "time"

// RewardClaim is one recorded redemption in the reward-claim ledger.
type RewardClaim struct {
	ID          string
	RewardType  string
	Description string
	ClaimedAt   time.Time
	Fulfilled   bool
}

// Record accumulates MVP wins and games played per (streamer, player). Like
// donor aggregates it is created on the first qualifying event and never
// deleted.
type Record struct {
	ID               string
	StreamerID       string
	PlayerIdentifier string
	PlayerName       string
	TotalMvpWins     int
	TotalGamesPlayed int
	RewardsClaimed   []RewardClaim
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RewardsEarned is how many rewards the win total warrants at the given win
// threshold.
func (r Record) RewardsEarned(winThreshold int) int {
	if winThreshold <= 0 {
		return 0
	}

	return r.TotalMvpWins / winThreshold
}

// PendingRewards is rewards earned minus claims already recorded, floored at
// zero.
func (r Record) PendingRewards(winThreshold int) int {
	pending := r.RewardsEarned(winThreshold) - len(r.RewardsClaimed)
	if pending < 0 {
		return 0
	}

	return pending
}
