package core

import "fmt"

// TransactionFilter selects transactions by settlement bucket.
type TransactionFilter string

const (
	FilterAllTransactions TransactionFilter = "all"
	FilterPaid            TransactionFilter = "paid"
	FilterUnpaid          TransactionFilter = "unpaid"
	FilterPending         TransactionFilter = "pending"
)

// TransactionFilters returns the selectors in button order.
func TransactionFilters() []TransactionFilter {
	return []TransactionFilter{FilterAllTransactions, FilterPaid, FilterUnpaid, FilterPending}
}

// ParseTransactionFilter validates a selector. The empty string means all.
func ParseTransactionFilter(s string) (TransactionFilter, error) {
	switch f := TransactionFilter(s); f {
	case "":
		return FilterAllTransactions, nil
	case FilterAllTransactions, FilterPaid, FilterUnpaid, FilterPending:
		return f, nil
	default:
		return "", fmt.Errorf("%w: transaction filter %q", ErrUnknownFilter, s)
	}
}

// Bucket returns the bucket f selects, or false for the all filter.
func (f TransactionFilter) Bucket() (Bucket, bool) {
	switch f {
	case FilterPaid:
		return BucketPaid, true
	case FilterUnpaid:
		return BucketReadyToSettle, true
	case FilterPending:
		return BucketInGateway, true
	default:
		return "", false
	}
}

// Match reports whether tx belongs to the selection.
func (f TransactionFilter) Match(tx Transaction) bool {
	b, ok := f.Bucket()
	if !ok {
		return true
	}
	return Classify(tx) == b
}

// Label returns the button caption.
func (f TransactionFilter) Label() string {
	switch f {
	case FilterPaid:
		return "Paid"
	case FilterUnpaid:
		return "Unpaid"
	case FilterPending:
		return "Pending"
	default:
		return "All"
	}
}

// FilterTransactions returns the matching transactions in input order.
// The input slice is never modified.
func FilterTransactions(txs []Transaction, f TransactionFilter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// CountTransactions returns how many transactions each selector would keep.
func CountTransactions(txs []Transaction) map[TransactionFilter]int {
	counts := make(map[TransactionFilter]int, 4)
	for _, f := range TransactionFilters() {
		counts[f] = 0
	}
	for _, tx := range txs {
		counts[FilterAllTransactions]++
		switch Classify(tx) {
		case BucketPaid:
			counts[FilterPaid]++
		case BucketReadyToSettle:
			counts[FilterUnpaid]++
		case BucketInGateway:
			counts[FilterPending]++
		}
	}
	return counts
}

// MerchantFilter selects merchants by their rollup flags.
type MerchantFilter string

const (
	FilterAllMerchants MerchantFilter = "all"
	FilterHasPending   MerchantFilter = "has-pending"
	FilterRecentlyPaid MerchantFilter = "paid"
	FilterActive       MerchantFilter = "active"
)

// MerchantFilters returns the selectors in button order.
func MerchantFilters() []MerchantFilter {
	return []MerchantFilter{FilterAllMerchants, FilterHasPending, FilterRecentlyPaid, FilterActive}
}

// ParseMerchantFilter validates a selector. The empty string means all.
func ParseMerchantFilter(s string) (MerchantFilter, error) {
	switch f := MerchantFilter(s); f {
	case "":
		return FilterAllMerchants, nil
	case FilterAllMerchants, FilterHasPending, FilterRecentlyPaid, FilterActive:
		return f, nil
	default:
		return "", fmt.Errorf("%w: merchant filter %q", ErrUnknownFilter, s)
	}
}

// Match reports whether m belongs to the selection.
func (f MerchantFilter) Match(m Merchant) bool {
	switch f {
	case FilterHasPending:
		return m.HasPendingPayout
	case FilterRecentlyPaid:
		return m.PaidTransactions > 0
	case FilterActive:
		return m.IsActive
	default:
		return true
	}
}

// Label returns the button caption.
func (f MerchantFilter) Label() string {
	switch f {
	case FilterHasPending:
		return "Has Pending"
	case FilterRecentlyPaid:
		return "Recently Paid"
	case FilterActive:
		return "Active"
	default:
		return "All"
	}
}

// FilterMerchants returns the matching merchants in input order.
func FilterMerchants(ms []Merchant, f MerchantFilter) []Merchant {
	out := make([]Merchant, 0, len(ms))
	for _, m := range ms {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

// CountMerchants returns how many merchants each selector would keep.
func CountMerchants(ms []Merchant) map[MerchantFilter]int {
	counts := make(map[MerchantFilter]int, 4)
	for _, f := range MerchantFilters() {
		for _, m := range ms {
			if f.Match(m) {
				counts[f]++
			}
		}
	}
	return counts
}
