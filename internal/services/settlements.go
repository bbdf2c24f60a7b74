package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fluxadmin/internal/amqp"
	"fluxadmin/internal/cache"
	"fluxadmin/internal/core"
	applog "fluxadmin/internal/log"
)

var (
	ErrMerchantNotFound     = errors.New("merchant not found")
	ErrPayoutNotFound       = errors.New("no pending payout for merchant")
	ErrSettlementInProgress = errors.New("a settlement for this merchant is already in progress")
)

const (
	keyStats     = "stats"
	keyPayouts   = "payouts"
	keyMerchants = "merchants"
)

// Options tunes the read cache and optional event publishing.
type Options struct {
	CacheTTL  time.Duration
	CacheSize int
	Publisher Publisher
	Logger    *applog.Logger
}

// Settlements is the data-access layer shared by the console and the CLI.
// Reads are cached for a short TTL; a successful settlement drops every entry
// it could have made stale.
type Settlements struct {
	backend    Backend
	publisher  Publisher
	logger     *applog.Logger
	structured *applog.StructuredLogger
	locks      *locker
	caching    bool

	// generation counts invalidations; a fetch that spans one is not cached.
	genMu      sync.Mutex
	generation uint64

	caches       *cache.Manager
	stats        *cache.LRUCache[core.Stats]
	payouts      *cache.LRUCache[[]core.PendingPayout]
	merchants    *cache.LRUCache[[]core.Merchant]
	transactions *cache.LRUCache[[]core.Transaction]
	details      *cache.LRUCache[core.PayoutDetail]
}

// NewSettlements wires the service. A zero CacheTTL disables caching.
func NewSettlements(backend Backend, opts Options) *Settlements {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	size := opts.CacheSize
	if size < 1 {
		size = 256
	}

	s := &Settlements{
		backend:      backend,
		publisher:    opts.Publisher,
		logger:       logger.WithComponent(applog.ComponentSettle),
		structured:   applog.NewStructuredLogger(logger),
		locks:        newLocker(),
		caching:      opts.CacheTTL > 0,
		caches:       cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger),
		stats:        cache.NewLRUCache[core.Stats](1, opts.CacheTTL),
		payouts:      cache.NewLRUCache[[]core.PendingPayout](1, opts.CacheTTL),
		merchants:    cache.NewLRUCache[[]core.Merchant](1, opts.CacheTTL),
		transactions: cache.NewLRUCache[[]core.Transaction](size, opts.CacheTTL),
		details:      cache.NewLRUCache[core.PayoutDetail](size, opts.CacheTTL),
	}
	s.caches.Register(keyStats, s.stats)
	s.caches.Register(keyPayouts, s.payouts)
	s.caches.Register(keyMerchants, s.merchants)
	s.caches.Register("transactions", s.transactions)
	s.caches.Register("payout_details", s.details)
	if s.caching {
		s.caches.StartCleanup(opts.CacheTTL)
	}
	return s
}

// Close stops the cache sweeper.
func (s *Settlements) Close() {
	s.caches.Stop()
}

func cached[T any](s *Settlements, c *cache.LRUCache[T], key string, clone func(T) T, fetch func() (T, error)) (T, error) {
	if !s.caching {
		return fetch()
	}
	if v, ok := c.Get(key); ok {
		return clone(v), nil
	}
	gen := s.currentGeneration()
	v, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	s.genMu.Lock()
	if s.generation == gen {
		c.Set(key, clone(v))
	}
	s.genMu.Unlock()
	return v, nil
}

func (s *Settlements) currentGeneration() uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generation
}

// Stats returns the backend's financial summary.
func (s *Settlements) Stats(ctx context.Context) (core.Stats, error) {
	return cached(s, s.stats, keyStats, identity[core.Stats], func() (core.Stats, error) {
		st, err := s.backend.Stats(ctx)
		if err != nil {
			return st, fmt.Errorf("load stats: %w", err)
		}
		return st, nil
	})
}

// PendingPayouts returns the merchants with funds ready to settle.
func (s *Settlements) PendingPayouts(ctx context.Context) ([]core.PendingPayout, error) {
	return cached(s, s.payouts, keyPayouts, clonePayouts, func() ([]core.PendingPayout, error) {
		p, err := s.backend.PendingPayouts(ctx)
		if err != nil {
			return nil, fmt.Errorf("load pending payouts: %w", err)
		}
		return p, nil
	})
}

// Merchants returns every merchant with its backend rollup.
func (s *Settlements) Merchants(ctx context.Context) ([]core.Merchant, error) {
	return cached(s, s.merchants, keyMerchants, cloneSlice[core.Merchant], func() ([]core.Merchant, error) {
		m, err := s.backend.AllMerchants(ctx)
		if err != nil {
			return nil, fmt.Errorf("load merchants: %w", err)
		}
		return m, nil
	})
}

// Transactions returns a merchant's transactions in backend order.
func (s *Settlements) Transactions(ctx context.Context, merchantID string) ([]core.Transaction, error) {
	return cached(s, s.transactions, merchantID, cloneSlice[core.Transaction], func() ([]core.Transaction, error) {
		txs, err := s.backend.MerchantTransactions(ctx, merchantID)
		if err != nil {
			return nil, fmt.Errorf("load transactions for %s: %w", merchantID, err)
		}
		return txs, nil
	})
}

// PayoutDetail returns the backend's breakdown of a merchant's pending payout.
func (s *Settlements) PayoutDetail(ctx context.Context, merchantID string) (core.PayoutDetail, error) {
	return cached(s, s.details, merchantID, cloneDetail, func() (core.PayoutDetail, error) {
		d, err := s.backend.PayoutDetail(ctx, merchantID)
		if err != nil {
			return d, fmt.Errorf("load payout detail for %s: %w", merchantID, err)
		}
		return d, nil
	})
}

// Dashboard is the overview: stats, pending payouts and merchants.
type Dashboard struct {
	Stats     core.Stats
	Payouts   []core.PendingPayout
	Merchants []core.Merchant
	Totals    core.GlobalTotals
	// Mismatches names backend stats fields that disagree with the merchant rollups.
	Mismatches []string
}

// Dashboard loads the three overview sources concurrently. Any failure fails the whole load.
func (s *Settlements) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats, err = s.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Payouts, err = s.PendingPayouts(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Merchants, err = s.Merchants(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Totals = core.Totals(d.Merchants)
	d.Mismatches = d.Totals.Diff(d.Stats)
	if len(d.Mismatches) > 0 {
		s.logger.WarnContext(ctx, "Backend stats disagree with merchant rollups",
			applog.FieldMismatch, d.Mismatches,
			"error_type", applog.ErrorTypeIntegration)
	}
	return d, nil
}

// MerchantList is the merchant directory with one filter applied.
type MerchantList struct {
	Filter    core.MerchantFilter
	Merchants []core.Merchant
	Counts    map[core.MerchantFilter]int
	Total     int
}

// MerchantList returns the merchants matching filter along with per-filter counts.
func (s *Settlements) MerchantList(ctx context.Context, filter core.MerchantFilter) (MerchantList, error) {
	all, err := s.Merchants(ctx)
	if err != nil {
		return MerchantList{}, err
	}
	return MerchantList{
		Filter:    filter,
		Merchants: core.FilterMerchants(all, filter),
		Counts:    core.CountMerchants(all),
		Total:     len(all),
	}, nil
}

// Merchant finds one merchant in the directory.
func (s *Settlements) Merchant(ctx context.Context, merchantID string) (core.Merchant, error) {
	all, err := s.Merchants(ctx)
	if err != nil {
		return core.Merchant{}, err
	}
	for _, m := range all {
		if m.MerchantID == merchantID {
			return m, nil
		}
	}
	return core.Merchant{}, fmt.Errorf("%w: %s", ErrMerchantNotFound, merchantID)
}

// MerchantView is the merchant detail screen.
type MerchantView struct {
	Merchant     core.Merchant
	Rollup       core.Rollup
	Filter       core.TransactionFilter
	Transactions []core.Transaction
	Counts       map[core.TransactionFilter]int
	// Mismatches names backend rollup fields that disagree with the transactions.
	Mismatches []string
	// Inconsistent lists payments marked paid whose funds never settled.
	Inconsistent []string
}

// MerchantView loads a merchant and its transactions concurrently and derives the rollup.
func (s *Settlements) MerchantView(ctx context.Context, merchantID string, filter core.TransactionFilter) (MerchantView, error) {
	var (
		m   core.Merchant
		txs []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		m, err = s.Merchant(gctx, merchantID)
		return err
	})
	g.Go(func() (err error) {
		txs, err = s.Transactions(gctx, merchantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return MerchantView{}, err
	}

	v := MerchantView{
		Merchant:     m,
		Rollup:       core.Summarize(txs),
		Filter:       filter,
		Transactions: core.FilterTransactions(txs, filter),
		Counts:       core.CountTransactions(txs),
	}
	v.Mismatches = v.Rollup.Diff(m)
	for _, tx := range txs {
		if err := tx.Consistent(); err != nil {
			v.Inconsistent = append(v.Inconsistent, tx.PaymentID)
		}
		if !tx.Status.Known() {
			s.logger.WarnContext(ctx, "Unknown lifecycle status, classified as in gateway",
				applog.FieldMerchantID, merchantID,
				"payment_id", tx.PaymentID,
				"status", string(tx.Status))
		}
	}
	if len(v.Mismatches) > 0 || len(v.Inconsistent) > 0 {
		s.logger.WarnContext(ctx, "Merchant data disagrees with its transactions",
			applog.FieldMerchantID, merchantID,
			applog.FieldMismatch, v.Mismatches,
			"inconsistent_payments", v.Inconsistent,
			"error_type", applog.ErrorTypeIntegration)
	}
	return v, nil
}

// PendingPayout returns the pending payout entry for one merchant.
func (s *Settlements) PendingPayout(ctx context.Context, merchantID string) (core.PendingPayout, error) {
	payouts, err := s.PendingPayouts(ctx)
	if err != nil {
		return core.PendingPayout{}, err
	}
	for _, p := range payouts {
		if p.MerchantID == merchantID {
			return p, nil
		}
	}
	return core.PendingPayout{}, fmt.Errorf("%w: %s", ErrPayoutNotFound, merchantID)
}

// PayoutItem is one payment of a pending payout as shown before settling.
type PayoutItem struct {
	PaymentID string
	Gross     core.Money
	Net       core.Money
	Date      string
	// Listed is false when the payout detail does not show the payment as ready to settle.
	Listed bool
}

// PayoutPreview is the settle confirmation: the pending entry, its payments
// with amounts from the payout detail, and any disagreement between the two.
type PayoutPreview struct {
	Payout core.PendingPayout
	Detail core.PayoutDetail
	Items  []PayoutItem
	// Extra lists ready-to-settle payments in the detail that the pending entry omits.
	Extra []string
}

// Matches reports whether the pending entry and the payout detail name the same payments.
func (p PayoutPreview) Matches() bool {
	if len(p.Extra) > 0 {
		return false
	}
	for _, it := range p.Items {
		if !it.Listed {
			return false
		}
	}
	return true
}

// PayoutPreview loads the pending payout entry and then its detail breakdown.
// The payment ids sent on settle are always the pending entry's.
func (s *Settlements) PayoutPreview(ctx context.Context, merchantID string) (PayoutPreview, error) {
	payout, err := s.PendingPayout(ctx, merchantID)
	if err != nil {
		return PayoutPreview{}, err
	}
	detail, err := s.PayoutDetail(ctx, merchantID)
	if err != nil {
		return PayoutPreview{}, err
	}

	ready := make(map[string]core.Transaction)
	for _, tx := range detail.Transactions {
		if core.Classify(tx) == core.BucketReadyToSettle {
			ready[tx.PaymentID] = tx
		}
	}
	p := PayoutPreview{Payout: payout, Detail: detail, Items: make([]PayoutItem, 0, len(payout.PaymentIDs))}
	pending := make(map[string]struct{}, len(payout.PaymentIDs))
	for _, id := range payout.PaymentIDs {
		pending[id] = struct{}{}
		tx, ok := ready[id]
		p.Items = append(p.Items, PayoutItem{
			PaymentID: id,
			Gross:     tx.AmountGross,
			Net:       tx.AmountNet,
			Date:      tx.TransactionDate,
			Listed:    ok,
		})
	}
	for _, id := range core.ReadyToSettleIDs(detail.Transactions) {
		if _, ok := pending[id]; !ok {
			p.Extra = append(p.Extra, id)
		}
	}
	if !p.Matches() {
		s.logger.WarnContext(ctx, "Payout detail disagrees with the pending payout entry",
			applog.FieldMerchantID, merchantID,
			"pending", len(payout.PaymentIDs),
			"extra", p.Extra,
			"error_type", applog.ErrorTypeIntegration)
	}
	return p, nil
}

// InProgress reports whether a settlement for merchantID is being submitted.
func (s *Settlements) InProgress(merchantID string) bool {
	return s.locks.isProcessing(merchantID)
}

// Settle marks the request's payments as paid.
//
// The request is sanitized and validated before anything is sent. Only one
// submission per merchant may be in flight. Exactly one mark-paid call is
// made; on success the cached views it affects are dropped and a
// payout.settled event is published when a publisher is configured.
func (s *Settlements) Settle(ctx context.Context, req core.PayoutRequest) (core.SettlementResult, error) {
	req = sanitizeRequest(req)
	if err := req.Validate(); err != nil {
		return core.SettlementResult{}, err
	}

	if !s.locks.tryLock(req.MerchantID) {
		return core.SettlementResult{}, fmt.Errorf("%w: %s", ErrSettlementInProgress, req.MerchantID)
	}
	defer s.locks.unlock(req.MerchantID)

	res, err := s.backend.MarkPaid(ctx, req)
	if err != nil {
		s.structured.LogError(ctx, "Mark-paid failed", err, applog.ComponentSettle, applog.OpSettle,
			applog.NewFields().WithSettlement(req.MerchantID, len(req.PaymentIDs), req.PayoutReference))
		return core.SettlementResult{}, err
	}

	s.invalidateMerchant(req.MerchantID)
	s.structured.LogSettlement(ctx, req.MerchantID, len(req.PaymentIDs), req.PayoutReference, res.InvoiceNumber, res.NetAmount.Paise)

	if s.publisher != nil {
		msg := amqp.NewPayoutSettledMessage(req.MerchantID, req.PaymentIDs, req.PayoutReference, res.InvoiceNumber, res.NetAmount.Paise, res.EmailSent)
		if err := s.publisher.PublishPayoutSettled(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish payout settled message",
				applog.FieldMerchantID, req.MerchantID,
				applog.FieldError, err.Error())
		}
	}
	return res, nil
}

func (s *Settlements) invalidateMerchant(merchantID string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generation++
	s.stats.Delete(keyStats)
	s.payouts.Delete(keyPayouts)
	s.merchants.Delete(keyMerchants)
	s.transactions.Delete(merchantID)
	s.details.Delete(merchantID)
}

// Invalidate drops every cached read.
func (s *Settlements) Invalidate() {
	s.genMu.Lock()
	s.generation++
	s.caches.PurgeAll()
	s.genMu.Unlock()
	s.logger.Debug("Cache invalidated", applog.FieldOperation, applog.OpInvalidate)
}

// CacheSizes reports the number of cached entries per read kind.
func (s *Settlements) CacheSizes() map[string]int {
	return s.caches.Sizes()
}

func identity[T any](v T) T { return v }

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func clonePayouts(in []core.PendingPayout) []core.PendingPayout {
	out := cloneSlice(in)
	for i := range out {
		out[i].PaymentIDs = cloneSlice(out[i].PaymentIDs)
	}
	return out
}

func cloneDetail(d core.PayoutDetail) core.PayoutDetail {
	d.Transactions = cloneSlice(d.Transactions)
	return d
}
