package services

import (
	"context"

	"fluxadmin/internal/amqp"
	"fluxadmin/internal/core"
)

//go:generate mockgen -destination=mocks/mock_backend.go -source=interface.go Backend,Publisher

// Backend is the admin API as seen by the settlement service.
type Backend interface {
	Stats(ctx context.Context) (core.Stats, error)
	PendingPayouts(ctx context.Context) ([]core.PendingPayout, error)
	AllMerchants(ctx context.Context) ([]core.Merchant, error)
	MerchantTransactions(ctx context.Context, merchantID string) ([]core.Transaction, error)
	PayoutDetail(ctx context.Context, merchantID string) (core.PayoutDetail, error)
	MarkPaid(ctx context.Context, req core.PayoutRequest) (core.SettlementResult, error)
}

// Publisher announces completed settlements.
type Publisher interface {
	PublishPayoutSettled(ctx context.Context, msg *amqp.PayoutSettledMessage) error
}
