package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lokastream/mabar-queue/internal/domain/mvp"
)

type mvpTableModel struct {
	ID               int64     `db:"id"`
	PublicID         string    `db:"public_id"`
	StreamerID       string    `db:"streamer_id"`
	PlayerIdentifier string    `db:"player_identifier"`
	PlayerName       string    `db:"player_name"`
	TotalMvpWins     int       `db:"total_mvp_wins"`
	TotalGamesPlayed int       `db:"total_games_played"`
	RewardsClaimed   []byte    `db:"rewards_claimed"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type rewardClaimDocument struct {
	ID          string    `json:"id"`
	RewardType  string    `json:"reward_type"`
	Description string    `json:"description"`
	ClaimedAt   time.Time `json:"claimed_at"`
	Fulfilled   bool      `json:"fulfilled"`
}

func encodeClaims(claims []mvp.RewardClaim) ([]byte, error) {
	docs := make([]rewardClaimDocument, 0, len(claims))
	for _, c := range claims {
		docs = append(docs, rewardClaimDocument(c))
	}

	encoded, err := sonic.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode reward claims: %w", err)
	}

	return encoded, nil
}

func decodeClaims(raw []byte) ([]mvp.RewardClaim, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var docs []rewardClaimDocument
	if err := sonic.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode reward claims: %w", err)
	}

	out := make([]mvp.RewardClaim, 0, len(docs))
	for _, d := range docs {
		out = append(out, mvp.RewardClaim(d))
	}

	return out, nil
}

func (m mvpTableModel) toRecord() (mvp.Record, error) {
	claims, err := decodeClaims(m.RewardsClaimed)
	if err != nil {
		return mvp.Record{}, err
	}

	return mvp.Record{
		ID:               m.PublicID,
		StreamerID:       m.StreamerID,
		PlayerIdentifier: m.PlayerIdentifier,
		PlayerName:       m.PlayerName,
		TotalMvpWins:     m.TotalMvpWins,
		TotalGamesPlayed: m.TotalGamesPlayed,
		RewardsClaimed:   claims,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}
