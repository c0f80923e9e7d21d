// Package settlement owns the money side of a match: entry-fee collection
// at formation, prize distribution at game end, and the pot/prize/fee split
// policy. Every operation is one atomic unit against the ledger.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/cashplay-space/cashplay/pkg/logging"
	"go.uber.org/zap"
)

// Transaction kinds recorded against the ledger. Amounts are int64 minor
// units (cents); bets are negative, credits positive.
const (
	TxBet    = "bet"
	TxWin    = "win"
	TxRefund = "refund"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger is the persistence contract the coordinator settles against.
// RunAtomic must apply the unit of work all-or-nothing; the Ledger passed to
// fn is scoped to that unit.
type Ledger interface {
	RunAtomic(ctx context.Context, fn func(tx Ledger) error) error
	Balance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64) error
	Credit(ctx context.Context, userID string, amount int64) error
	RecordTransaction(ctx context.Context, userID, txType string, amount int64, gameResultID *uint) error
	RecordGameResult(ctx context.Context, winnerID *string, pot, fee int64) (uint, error)
}

// Config carries the per-deployment split policy. The fee has varied across
// deployments; it is never hardcoded.
type Config struct {
	// FeeBps is the house cut in basis points (2500 = 25%).
	FeeBps int64
	// RecordDraws keeps a winnerless game-result row for drawn matches.
	RecordDraws bool
}

type Coordinator struct {
	ledger Ledger
	cfg    Config
}

func NewCoordinator(ledger Ledger, cfg Config) *Coordinator {
	return &Coordinator{ledger: ledger, cfg: cfg}
}

// split divides a pot into prize and fee. Integer division rounds the fee
// down so prize+fee always equals the pot exactly.
func (c *Coordinator) split(pot int64) (prize, fee int64) {
	fee = pot * c.cfg.FeeBps / 10000
	return pot - fee, fee
}

// CollectEntryFees debits stake from every participant and records one bet
// transaction each, all-or-nothing. Every balance is verified before the
// first debit. Returns the pot, fixed for the match's whole lifetime.
func (c *Coordinator) CollectEntryFees(ctx context.Context, playerIDs []string, stake int64) (int64, error) {
	pot := stake * int64(len(playerIDs))
	err := c.ledger.RunAtomic(ctx, func(tx Ledger) error {
		for _, id := range playerIDs {
			balance, err := tx.Balance(ctx, id)
			if err != nil {
				return fmt.Errorf("balance check for %s: %w", id, err)
			}
			if balance < stake {
				return fmt.Errorf("%w: player %s", ErrInsufficientFunds, id)
			}
		}
		for _, id := range playerIDs {
			if err := tx.Debit(ctx, id, stake); err != nil {
				return fmt.Errorf("debit for %s: %w", id, err)
			}
			if err := tx.RecordTransaction(ctx, id, TxBet, -stake, nil); err != nil {
				return fmt.Errorf("bet record for %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logging.Info("entry fees collected",
		zap.Int64("stake", stake),
		zap.Int64("pot", pot),
		zap.Int("players", len(playerIDs)),
	)
	return pot, nil
}

// SettleWin records the game result, credits the prize, records the linked
// win transaction and re-reads the winner's balance, as one atomic unit.
func (c *Coordinator) SettleWin(ctx context.Context, matchID, winnerID string, pot int64) (int64, error) {
	return c.settle(ctx, matchID, winnerID, pot)
}

// SettleForfeit pays out the sole remaining participant after everyone else
// disconnected. Identical atomic effect to SettleWin.
func (c *Coordinator) SettleForfeit(ctx context.Context, matchID, soleRemainingID string, pot int64) (int64, error) {
	return c.settle(ctx, matchID, soleRemainingID, pot)
}

func (c *Coordinator) settle(ctx context.Context, matchID, winnerID string, pot int64) (int64, error) {
	prize, fee := c.split(pot)
	var newBalance int64
	err := c.ledger.RunAtomic(ctx, func(tx Ledger) error {
		gameID, err := tx.RecordGameResult(ctx, &winnerID, pot, fee)
		if err != nil {
			return fmt.Errorf("game result: %w", err)
		}
		if err := tx.Credit(ctx, winnerID, prize); err != nil {
			return fmt.Errorf("prize credit: %w", err)
		}
		if err := tx.RecordTransaction(ctx, winnerID, TxWin, prize, &gameID); err != nil {
			return fmt.Errorf("win record: %w", err)
		}
		newBalance, err = tx.Balance(ctx, winnerID)
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.Info("match settled",
		zap.String("match_id", matchID),
		zap.String("winner_id", winnerID),
		zap.Int64("pot", pot),
		zap.Int64("prize", prize),
		zap.Int64("fee", fee),
	)
	return newBalance, nil
}

// SettleDraw moves no funds and takes no fee. Depending on configuration it
// records a winnerless result for history.
func (c *Coordinator) SettleDraw(ctx context.Context, matchID string, pot int64) error {
	if !c.cfg.RecordDraws {
		return nil
	}
	err := c.ledger.RunAtomic(ctx, func(tx Ledger) error {
		_, err := tx.RecordGameResult(ctx, nil, pot, 0)
		return err
	})
	if err != nil {
		return err
	}
	logging.Info("draw recorded", zap.String("match_id", matchID), zap.Int64("pot", pot))
	return nil
}

// RefundEntryFees returns each live participant their stake when a match is
// cancelled after fees were collected, one atomic unit for the whole batch.
func (c *Coordinator) RefundEntryFees(ctx context.Context, matchID string, playerIDs []string, stake int64) error {
	err := c.ledger.RunAtomic(ctx, func(tx Ledger) error {
		for _, id := range playerIDs {
			if err := tx.Credit(ctx, id, stake); err != nil {
				return fmt.Errorf("refund credit for %s: %w", id, err)
			}
			if err := tx.RecordTransaction(ctx, id, TxRefund, stake, nil); err != nil {
				return fmt.Errorf("refund record for %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.Info("entry fees refunded",
		zap.String("match_id", matchID),
		zap.Int64("stake", stake),
		zap.Int("players", len(playerIDs)),
	)
	return nil
}
