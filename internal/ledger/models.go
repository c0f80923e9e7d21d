package ledger

import "time"

// All money columns are int64 minor units (cents).

type User struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	BalanceMinor int64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

// GameResult is one settled (or recorded-draw) match: winner, pot and the
// house fee. WinnerID is null for draws.
type GameResult struct {
	ID        uint    `gorm:"primaryKey"`
	WinnerID  *string `gorm:"size:64;index"`
	PotMinor  int64   `gorm:"not null"`
	FeeMinor  int64   `gorm:"not null"`
	CreatedAt time.Time
}

// Transaction is one balance movement: a bet (negative), a win credit or a
// refund. Win transactions link back to their game result.
type Transaction struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"size:64;not null;index"`
	Type         string `gorm:"size:16;not null"`
	AmountMinor  int64  `gorm:"not null"`
	GameResultID *uint  `gorm:"index"`
	CreatedAt    time.Time
}
