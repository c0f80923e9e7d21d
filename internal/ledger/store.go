// Package ledger persists user balances, transactions and game results in
// PostgreSQL and implements the settlement coordinator's Ledger contract.
package ledger

import (
	"context"
	"fmt"
	"time"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cashplay-space/cashplay/internal/settlement"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL and migrates the ledger tables.
func Open(cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&User{}, &GameResult{}, &Transaction{}); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

// RunAtomic runs fn inside one database transaction; the Ledger handed to
// fn is scoped to it, so every step commits or none do.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx settlement.Ledger) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Balance(ctx context.Context, userID string) (int64, error) {
	var user User
	err := s.db.WithContext(ctx).
		Select("balance_minor").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return 0, fmt.Errorf("balance for %s: %w", userID, err)
	}
	return user.BalanceMinor, nil
}

// Debit subtracts amount from the user's balance. The guard in the WHERE
// clause refuses to drive a balance negative even under concurrent writers.
func (s *Store) Debit(ctx context.Context, userID string, amount int64) error {
	res := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND balance_minor >= ?", userID, amount).
		Update("balance_minor", gorm.Expr("balance_minor - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: player %s", settlement.ErrInsufficientFunds, userID)
	}
	return nil
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64) error {
	res := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Update("balance_minor", gorm.Expr("balance_minor + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credit for %s: %w", userID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) RecordTransaction(ctx context.Context, userID, txType string, amount int64, gameResultID *uint) error {
	tx := Transaction{
		UserID:       userID,
		Type:         txType,
		AmountMinor:  amount,
		GameResultID: gameResultID,
	}
	if err := s.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return fmt.Errorf("record transaction for %s: %w", userID, err)
	}
	return nil
}

func (s *Store) RecordGameResult(ctx context.Context, winnerID *string, pot, fee int64) (uint, error) {
	result := GameResult{
		WinnerID: winnerID,
		PotMinor: pot,
		FeeMinor: fee,
	}
	if err := s.db.WithContext(ctx).Create(&result).Error; err != nil {
		return 0, fmt.Errorf("record game result: %w", err)
	}
	return result.ID, nil
}
