package core

import "errors"

// LifecycleStatus is the gateway-side state of a payment as reported by the backend.
// Values outside the known set are kept verbatim so they can be shown to the operator.
type LifecycleStatus string

const (
	LifecyclePending       LifecycleStatus = "pending"
	LifecycleSettledInBank LifecycleStatus = "settled_in_bank"
	LifecycleSettled       LifecycleStatus = "settled"
)

// Known reports whether s is one of the lifecycle values this console understands.
func (s LifecycleStatus) Known() bool {
	switch s {
	case LifecyclePending, LifecycleSettledInBank, LifecycleSettled:
		return true
	default:
		return false
	}
}

// IsSettled reports whether funds for the payment have reached the operator's bank.
func (s LifecycleStatus) IsSettled() bool {
	switch s {
	case LifecycleSettledInBank, LifecycleSettled:
		return true
	case LifecyclePending:
		return false
	default:
		// Unrecognised values have not settled as far as we can tell.
		return false
	}
}

// PayoutStatus is the merchant-side state of a payment.
type PayoutStatus string

const (
	PayoutUnpaid PayoutStatus = "unpaid"
	PayoutPaid   PayoutStatus = "paid"
)

// IsPaid reports whether the payment has been paid out to the merchant.
// Anything other than "paid" (including an empty value) counts as unpaid.
func (s PayoutStatus) IsPaid() bool {
	return s == PayoutPaid
}

// Bucket is the derived settlement state of a transaction. Exactly one applies.
type Bucket string

const (
	BucketInGateway     Bucket = "in_gateway"
	BucketReadyToSettle Bucket = "ready_to_settle"
	BucketPaid          Bucket = "paid"
)

// AllBuckets returns every bucket in display order.
func AllBuckets() []Bucket {
	return []Bucket{BucketPaid, BucketReadyToSettle, BucketInGateway}
}

// Label returns the operator-facing name of the bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketPaid:
		return "Paid"
	case BucketReadyToSettle:
		return "Ready to Settle"
	case BucketInGateway:
		return "In Razorpay"
	default:
		return string(b)
	}
}

type (
	// Transaction is one payment as delivered by GET /admin/merchants/{id}/transactions.
	Transaction struct {
		PaymentID       string          `json:"payment_id"`
		AmountGross     Money           `json:"amount_gross"`
		AmountNet       Money           `json:"amount_net"`
		GatewayFee      Money           `json:"razorpay_fee"`
		PlatformFee     Money           `json:"flux_fee"`
		Tax             Money           `json:"tax_amount"`
		PaymentMethod   string          `json:"payment_method,omitempty"`
		Status          LifecycleStatus `json:"status"`
		PayoutStatus    PayoutStatus    `json:"payout_status"`
		SettlementID    string          `json:"settlement_id,omitempty"`
		PayoutReference string          `json:"payout_reference,omitempty"`
		TransactionDate string          `json:"transaction_date"`
	}

	// Merchant carries contact, bank and rollup fields from GET /admin/merchants/all.
	Merchant struct {
		MerchantID          string `json:"merchant_id"`
		MerchantName        string `json:"merchant_name"`
		Email               string `json:"email,omitempty"`
		Phone               string `json:"phone,omitempty"`
		BankAccount         string `json:"bank_account,omitempty"`
		BankIFSC            string `json:"bank_ifsc,omitempty"`
		IsActive            bool   `json:"is_active"`
		HasPendingPayout    bool   `json:"has_pending_payout"`
		TotalCollected      Money  `json:"total_collected"`
		TotalPaid           Money  `json:"total_paid"`
		PendingPayout       Money  `json:"pending_payout"`
		InGatewayBalance    Money  `json:"in_razorpay_balance"`
		TotalTransactions   int    `json:"total_transactions"`
		PaidTransactions    int    `json:"paid_transactions"`
		UnpaidTransactions  int    `json:"unpaid_transactions"`
		PendingTransactions int    `json:"pending_transactions"`
		LastPayoutDate      string `json:"last_payout_date,omitempty"`
		LastPayoutAmount    Money  `json:"last_payout_amount"`
		LastPayoutUTR       string `json:"last_payout_utr,omitempty"`
	}

	// PendingPayout is one entry of GET /admin/payouts.
	PendingPayout struct {
		MerchantID       string   `json:"merchant_id"`
		MerchantName     string   `json:"merchant_name"`
		MerchantIFSC     string   `json:"merchant_ifsc,omitempty"`
		TotalPayable     Money    `json:"total_payable"`
		TransactionCount int      `json:"transaction_count"`
		PaymentIDs       []string `json:"payment_ids"`
	}

	// Stats is the global financial summary from GET /admin/stats.
	Stats struct {
		TotalCollected          Money `json:"total_collected"`
		TotalTransactions       int   `json:"total_transactions"`
		InGatewayBalance        Money `json:"in_razorpay_balance"`
		GatewayPendingCount     int   `json:"razorpay_pending_count"`
		InOurBank               Money `json:"in_our_bank"`
		SettledToUsCount        int   `json:"settled_to_us_count"`
		TotalSettledToMerchants Money `json:"total_settled_to_merchants"`
		PaidToMerchantsCount    int   `json:"paid_to_merchants_count"`
	}

	// PayoutDetail is the response of GET /admin/payouts/{id}.
	PayoutDetail struct {
		Merchant     Merchant      `json:"merchant"`
		Transactions []Transaction `json:"transactions"`
		TotalPayable Money         `json:"total_payable"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrPaidBeforeSettled = errors.New("payout marked paid before funds settled")
	ErrUnknownFilter     = errors.New("unknown filter")
	ErrMissingMerchant   = errors.New("merchant id is required")
	ErrNoPayments        = errors.New("at least one payment id is required")
	ErrEmptyReference    = errors.New("payout reference (UTR) is required")
	ErrDuplicatePayment  = errors.New("duplicate payment id")
)
