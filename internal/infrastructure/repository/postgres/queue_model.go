package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
)

type queueEntryTableModel struct {
	ID                 int64     `db:"id"`
	PublicID           string    `db:"public_id"`
	SettingsID         string    `db:"mabar_settings_id"`
	StreamerID         string    `db:"streamer_id"`
	PlayerName         string    `db:"player_name"`
	GameID             string    `db:"game_id"`
	GameNickname       string    `db:"game_nickname"`
	Role               string    `db:"role"`
	Email              string    `db:"email"`
	Phone              string    `db:"phone"`
	PaymentStatus      string    `db:"payment_status"`
	OrderID            string    `db:"order_id"`
	PaymentMethod      string    `db:"payment_method"`
	AmountPaid         int64     `db:"amount_paid"`
	GatewayStatus      string    `db:"gateway_status"`
	GatewayPaymentType string    `db:"gateway_payment_type"`
	QueuePosition      int       `db:"queue_position"`
	Status             string    `db:"status"`
	CustomData         []byte    `db:"custom_data"`
	JoinedAt           time.Time `db:"joined_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type customValueDocument struct {
	FieldID string `json:"field_id"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

func encodeCustomData(values []queue.CustomValue) ([]byte, error) {
	docs := make([]customValueDocument, 0, len(values))
	for _, v := range values {
		docs = append(docs, customValueDocument(v))
	}

	encoded, err := sonic.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode custom data: %w", err)
	}

	return encoded, nil
}

func decodeCustomData(raw []byte) ([]queue.CustomValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var docs []customValueDocument
	if err := sonic.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode custom data: %w", err)
	}

	out := make([]queue.CustomValue, 0, len(docs))
	for _, d := range docs {
		out = append(out, queue.CustomValue(d))
	}

	return out, nil
}

func (m queueEntryTableModel) toEntry() (queue.Entry, error) {
	customData, err := decodeCustomData(m.CustomData)
	if err != nil {
		return queue.Entry{}, err
	}

	return queue.Entry{
		ID:                 m.PublicID,
		SettingsID:         m.SettingsID,
		StreamerID:         m.StreamerID,
		PlayerName:         m.PlayerName,
		GameID:             m.GameID,
		GameNickname:       m.GameNickname,
		Role:               m.Role,
		Email:              m.Email,
		Phone:              m.Phone,
		PaymentStatus:      queue.PaymentStatus(m.PaymentStatus),
		OrderID:            m.OrderID,
		PaymentMethod:      m.PaymentMethod,
		AmountPaid:         m.AmountPaid,
		GatewayStatus:      m.GatewayStatus,
		GatewayPaymentType: m.GatewayPaymentType,
		QueuePosition:      m.QueuePosition,
		Status:             queue.EntryStatus(m.Status),
		CustomData:         customData,
		JoinedAt:           m.JoinedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}
