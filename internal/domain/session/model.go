package session

import (
	"fmt"
	"strings"
	"time"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusPreparing  Status = "preparing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// MaxPartySize is the fixed cap on players in one session.
const MaxPartySize = 4

// GameResult is the operator-reported outcome of a completed session.
type GameResult string

const (
	ResultWin  GameResult = "win"
	ResultLose GameResult = "lose"
	ResultDraw GameResult = "draw"
)

// Player is an immutable snapshot of a queue entry's player attributes taken
// at selection time. Later edits to the source entry never retroactively
// alter session history.
type Player struct {
	QueueEntryID string
	PlayerName   string
	GameID       string
	GameNickname string
	Role         string
	AmountPaid   int64
	IsMvp        bool
	JoinedAt     time.Time
}

// Session is one instantiated party of paid players playing a round
// together.
type Session struct {
	ID            string
	StreamerID    string
	SettingsID    string
	SessionNumber int

	Players []Player

	GameType   string
	GameResult GameResult
	MvpGameID  string
	MvpEntryID string

	StartedAt       time.Time
	EndedAt         time.Time
	DurationMinutes int

	TotalRevenue int64
	Notes        string

	Status Status
}

func (s Session) Validate() error {
	if s.StreamerID == "" {
		return fmt.Errorf("session streamer id is required")
	}
	if s.SettingsID == "" {
		return fmt.Errorf("session settings id is required")
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("session requires at least one player")
	}
	if len(s.Players) > MaxPartySize {
		return fmt.Errorf("session party exceeds %d players", MaxPartySize)
	}

	return nil
}

// UnpaidPlayersError names every selected entry that has not completed its
// payment. Sessions never start with a partially paid party.
type UnpaidPlayersError struct {
	Names []string
}

func (e *UnpaidPlayersError) Error() string {
	return fmt.Sprintf("players have not completed payment: %s", strings.Join(e.Names, ", "))
}

func ParseGameResult(raw string) (GameResult, error) {
	switch GameResult(strings.ToLower(strings.TrimSpace(raw))) {
	case ResultWin:
		return ResultWin, nil
	case ResultLose:
		return ResultLose, nil
	case ResultDraw:
		return ResultDraw, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown game result %q", raw)
	}
}
