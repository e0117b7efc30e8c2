package usecase

import (
	"context"
	"fmt"
	"strings"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/dto/request"
	"venue-booking/pkg/apperror"
	"venue-booking/pkg/utils"

	"go.uber.org/zap"
)

type PayoutService interface {
	UpsertPayoutAccount(ctx context.Context, actor Actor, req *request.UpsertPayoutAccountRequest) (*entity.PayoutAccount, error)
	GetPayoutAccount(ctx context.Context, actor Actor) (*entity.PayoutAccount, error)
}

type payoutService struct {
	*engine
	log *zap.Logger
}

func NewPayoutService(e *engine, log *zap.Logger) PayoutService {
	return &payoutService{
		engine: e,
		log:    log.With(zap.String("service", "payout")),
	}
}

func (s *payoutService) UpsertPayoutAccount(ctx context.Context, actor Actor, req *request.UpsertPayoutAccountRequest) (*entity.PayoutAccount, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Payout account validation failed", zap.Any("errors", errs))
		return nil, apperror.Newf(apperror.KindInvalidInput, "validation failed: %s", utils.FormatValidationErrors(errs))
	}

	now := s.now()
	account := &entity.PayoutAccount{
		UserID:        actor.ID,
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: req.AccountNumber,
		AccountHolder: strings.TrimSpace(req.AccountHolder),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	existing, err := s.repo.Payout.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load payout account: %w", err)
	}
	if existing != nil {
		account.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Payout.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("save payout account: %w", err)
	}

	s.log.Info("Payout account saved",
		zap.String("user_id", actor.ID.String()),
		zap.String("account", account.MaskedAccountNumber()),
	)

	return account, nil
}

func (s *payoutService) GetPayoutAccount(ctx context.Context, actor Actor) (*entity.PayoutAccount, error) {
	account, err := s.repo.Payout.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load payout account: %w", err)
	}
	if account == nil {
		return nil, apperror.New(apperror.KindNotFound, "no payout account on file")
	}
	return account, nil
}
