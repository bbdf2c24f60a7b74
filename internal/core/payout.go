package core

import (
	"fmt"
	"strings"
)

// PayoutRequest asks the backend to mark payments as paid out.
// It lives only for the duration of one settle action.
type PayoutRequest struct {
	MerchantID      string   `json:"merchant_id"`
	PaymentIDs      []string `json:"payment_ids"`
	PayoutReference string   `json:"payout_reference"`
}

// Validate checks the request before it is sent.
func (p PayoutRequest) Validate() error {
	if strings.TrimSpace(p.MerchantID) == "" {
		return ErrMissingMerchant
	}
	if len(p.PaymentIDs) == 0 {
		return ErrNoPayments
	}
	seen := make(map[string]struct{}, len(p.PaymentIDs))
	for _, id := range p.PaymentIDs {
		if strings.TrimSpace(id) == "" {
			return ErrNoPayments
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicatePayment
		}
		seen[id] = struct{}{}
	}
	if strings.TrimSpace(p.PayoutReference) == "" {
		return ErrEmptyReference
	}
	return nil
}

// SettlementResult is the backend's answer to a mark-paid request.
type SettlementResult struct {
	InvoiceNumber       string `json:"invoice_number"`
	NetAmount           Money  `json:"net_amount"`
	EmailSent           bool   `json:"email_sent"`
	TransactionsUpdated int    `json:"transactions_updated,omitempty"`
	Message             string `json:"message,omitempty"`
}

// Summary is the operator-facing success line. The backend's updated count
// wins over requested when it reports one.
func (r SettlementResult) Summary(requested int) string {
	n := r.TransactionsUpdated
	if n == 0 {
		n = requested
	}
	msg := fmt.Sprintf("Settlement successful! %d transactions marked as paid.", n)
	if r.InvoiceNumber != "" {
		msg += " Invoice " + r.InvoiceNumber + "."
	}
	return msg
}

// NewPayoutRequest builds the request for a pending payout entry.
func NewPayoutRequest(p PendingPayout, reference string) PayoutRequest {
	ids := make([]string, len(p.PaymentIDs))
	copy(ids, p.PaymentIDs)
	return PayoutRequest{
		MerchantID:      p.MerchantID,
		PaymentIDs:      ids,
		PayoutReference: reference,
	}
}

// ReadyToSettleIDs returns the payment ids of the ready-to-settle transactions in input order.
func ReadyToSettleIDs(txs []Transaction) []string {
	var ids []string
	for _, tx := range txs {
		if Classify(tx) == BucketReadyToSettle {
			ids = append(ids, tx.PaymentID)
		}
	}
	return ids
}

// MaskAccount hides all but the last four characters of a bank account number.
func MaskAccount(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		return ""
	}
	r := []rune(account)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return "****" + string(r)
}

// BankLine renders "IFSC | ****1234" for display, or "" when no account is on file.
func (m Merchant) BankLine() string {
	masked := MaskAccount(m.BankAccount)
	if masked == "" {
		return ""
	}
	if m.BankIFSC == "" {
		return masked
	}
	return m.BankIFSC + " | " + masked
}

// ShortID returns the first eight characters of the merchant id followed by "...".
func (m Merchant) ShortID() string {
	r := []rune(m.MerchantID)
	if len(r) <= 8 {
		return m.MerchantID
	}
	return string(r[:8]) + "..."
}
