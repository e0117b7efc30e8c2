package repository

import (
	"context"
	"fmt"

	"venue-booking/internal/data/entity"
	"venue-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PayoutAccountRepository interface {
	Upsert(ctx context.Context, account *entity.PayoutAccount) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.PayoutAccount, error)
}

type payoutAccountRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPayoutAccountRepository(db database.PgxIface, log *zap.Logger) PayoutAccountRepository {
	return &payoutAccountRepository{
		db:  db,
		log: log.With(zap.String("repository", "payout_account")),
	}
}

func (r *payoutAccountRepository) Upsert(ctx context.Context, account *entity.PayoutAccount) error {
	query := `
		INSERT INTO payout_accounts (user_id, bank_name, account_number, account_holder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET bank_name = EXCLUDED.bank_name,
		    account_number = EXCLUDED.account_number,
		    account_holder = EXCLUDED.account_holder,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		account.UserID,
		account.BankName,
		account.AccountNumber,
		account.AccountHolder,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to upsert payout account",
			zap.Error(err),
			zap.String("user_id", account.UserID.String()),
		)
		return fmt.Errorf("upsert payout account for user %s: %w", account.UserID.String(), err)
	}

	return nil
}

func (r *payoutAccountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.PayoutAccount, error) {
	query := `
		SELECT user_id, bank_name, account_number, account_holder, created_at, updated_at
		FROM payout_accounts
		WHERE user_id = $1
	`

	var account entity.PayoutAccount
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&account.UserID,
		&account.BankName,
		&account.AccountNumber,
		&account.AccountHolder,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payout account",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find payout account for user %s: %w", userID.String(), err)
	}

	return &account, nil
}
