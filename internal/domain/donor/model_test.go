package donor

import "testing"

func TestClassifyTier(t *testing.T) {
	cases := []struct {
		amount int64
		want   Tier
	}{
		{0, TierBronze},
		{199_999, TierBronze},
		{200_000, TierSilver},
		{499_999, TierSilver},
		{500_000, TierGold},
		{999_999, TierGold},
		{1_000_000, TierPlatinum},
		{1_999_999, TierPlatinum},
		{2_000_000, TierDiamond},
		{10_000_000, TierDiamond},
	}

	for _, tc := range cases {
		if got := ClassifyTier(tc.amount); got != tc.want {
			t.Fatalf("ClassifyTier(%d) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}
