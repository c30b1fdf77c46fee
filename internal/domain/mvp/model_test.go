package mvp

import "testing"

func TestRewardsEarned(t *testing.T) {
	r := Record{TotalMvpWins: 7}

	if got := r.RewardsEarned(3); got != 2 {
		t.Fatalf("7 wins at threshold 3 should earn 2 rewards, got %d", got)
	}
	if got := r.RewardsEarned(0); got != 0 {
		t.Fatalf("zero threshold earns nothing, got %d", got)
	}
	if got := r.RewardsEarned(-1); got != 0 {
		t.Fatalf("negative threshold earns nothing, got %d", got)
	}
}

func TestPendingRewards(t *testing.T) {
	r := Record{
		TotalMvpWins:   9,
		RewardsClaimed: []RewardClaim{{ID: "claim-1"}, {ID: "claim-2"}},
	}

	if got := r.PendingRewards(3); got != 1 {
		t.Fatalf("9 wins, threshold 3, 2 claims should leave 1 pending, got %d", got)
	}

	overclaimed := Record{
		TotalMvpWins:   3,
		RewardsClaimed: []RewardClaim{{ID: "a"}, {ID: "b"}},
	}
	if got := overclaimed.PendingRewards(3); got != 0 {
		t.Fatalf("pending floors at zero, got %d", got)
	}
}
