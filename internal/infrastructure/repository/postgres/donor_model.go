package postgres

import (
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
)

type donorTableModel struct {
	ID              int64     `db:"id"`
	PublicID        string    `db:"public_id"`
	StreamerID      string    `db:"streamer_id"`
	GameID          string    `db:"game_id"`
	PlayerName      string    `db:"player_name"`
	GameNickname    string    `db:"game_nickname"`
	Email           string    `db:"email"`
	Phone           string    `db:"phone"`
	TotalDonations  int       `db:"total_donations"`
	LifetimeAmount  int64     `db:"lifetime_amount"`
	GamesPlayed     int       `db:"games_played"`
	MvpWins         int       `db:"mvp_wins"`
	FavoriteRole    string    `db:"favorite_role"`
	Tier            string    `db:"tier"`
	FirstDonationAt time.Time `db:"first_donation_at"`
	LastDonationAt  time.Time `db:"last_donation_at"`
	IsBlocked       bool      `db:"is_blocked"`
	Notes           string    `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (m donorTableModel) toAggregate() donor.Aggregate {
	return donor.Aggregate{
		ID:              m.PublicID,
		StreamerID:      m.StreamerID,
		GameID:          m.GameID,
		PlayerName:      m.PlayerName,
		GameNickname:    m.GameNickname,
		Email:           m.Email,
		Phone:           m.Phone,
		TotalDonations:  m.TotalDonations,
		LifetimeAmount:  m.LifetimeAmount,
		GamesPlayed:     m.GamesPlayed,
		MvpWins:         m.MvpWins,
		FavoriteRole:    m.FavoriteRole,
		Tier:            donor.Tier(m.Tier),
		FirstDonationAt: m.FirstDonationAt,
		LastDonationAt:  m.LastDonationAt,
		IsBlocked:       m.IsBlocked,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

type donorInsertModel struct {
	PublicID        string    `db:"public_id"`
	StreamerID      string    `db:"streamer_id"`
	GameID          string    `db:"game_id"`
	PlayerName      string    `db:"player_name"`
	GameNickname    string    `db:"game_nickname"`
	Email           string    `db:"email"`
	Phone           string    `db:"phone"`
	TotalDonations  int       `db:"total_donations"`
	LifetimeAmount  int64     `db:"lifetime_amount"`
	FavoriteRole    string    `db:"favorite_role"`
	Tier            string    `db:"tier"`
	FirstDonationAt time.Time `db:"first_donation_at"`
	LastDonationAt  time.Time `db:"last_donation_at"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type donationTableModel struct {
	ID            int64     `db:"id"`
	PublicID      string    `db:"public_id"`
	StreamerID    string    `db:"streamer_id"`
	DonorName     string    `db:"donor_name"`
	DonorGameID   string    `db:"donor_game_id"`
	Amount        int64     `db:"amount"`
	Currency      string    `db:"currency"`
	DonationType  string    `db:"donation_type"`
	QueueEntryID  string    `db:"queue_entry_id"`
	OrderID       string    `db:"order_id"`
	PaymentMethod string    `db:"payment_method"`
	CreatedAt     time.Time `db:"created_at"`
}

func (m donationTableModel) toDonation() donor.Donation {
	return donor.Donation{
		ID:            m.PublicID,
		StreamerID:    m.StreamerID,
		DonorName:     m.DonorName,
		DonorGameID:   m.DonorGameID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		DonationType:  m.DonationType,
		QueueEntryID:  m.QueueEntryID,
		OrderID:       m.OrderID,
		PaymentMethod: m.PaymentMethod,
		CreatedAt:     m.CreatedAt,
	}
}

type donationInsertModel struct {
	PublicID      string    `db:"public_id"`
	StreamerID    string    `db:"streamer_id"`
	DonorName     string    `db:"donor_name"`
	DonorGameID   string    `db:"donor_game_id"`
	Amount        int64     `db:"amount"`
	Currency      string    `db:"currency"`
	DonationType  string    `db:"donation_type"`
	QueueEntryID  string    `db:"queue_entry_id"`
	OrderID       string    `db:"order_id"`
	PaymentMethod string    `db:"payment_method"`
	CreatedAt     time.Time `db:"created_at"`
}
