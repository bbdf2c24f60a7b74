package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutRequestJSON(t *testing.T) {
	req := PayoutRequest{MerchantID: "M1", PaymentIDs: []string{"P1", "P2"}, PayoutReference: "UTR123"}
	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Equal(t, `{"merchant_id":"M1","payment_ids":["P1","P2"],"payout_reference":"UTR123"}`, string(b))
}

func TestPayoutRequestValidate(t *testing.T) {
	ok := PayoutRequest{MerchantID: "M1", PaymentIDs: []string{"P1"}, PayoutReference: "UTR1"}
	assert.NoError(t, ok.Validate())

	cases := []struct {
		name string
		req  PayoutRequest
		err  error
	}{
		{"no merchant", PayoutRequest{PaymentIDs: []string{"P1"}, PayoutReference: "U"}, ErrMissingMerchant},
		{"no payments", PayoutRequest{MerchantID: "M1", PayoutReference: "U"}, ErrNoPayments},
		{"blank payment", PayoutRequest{MerchantID: "M1", PaymentIDs: []string{" "}, PayoutReference: "U"}, ErrNoPayments},
		{"duplicate", PayoutRequest{MerchantID: "M1", PaymentIDs: []string{"P1", "P1"}, PayoutReference: "U"}, ErrDuplicatePayment},
		{"empty reference", PayoutRequest{MerchantID: "M1", PaymentIDs: []string{"P1"}, PayoutReference: "   "}, ErrEmptyReference},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.req.Validate(), tc.err)
		})
	}
}

func TestNewPayoutRequestCopiesIDs(t *testing.T) {
	p := PendingPayout{MerchantID: "M1", PaymentIDs: []string{"P1", "P2"}}
	req := NewPayoutRequest(p, "UTR9")
	req.PaymentIDs[0] = "X"
	assert.Equal(t, "P1", p.PaymentIDs[0])
	assert.Equal(t, "UTR9", req.PayoutReference)
}

func TestSettlementResultSummary(t *testing.T) {
	assert.Equal(t, "Settlement successful! 2 transactions marked as paid.", SettlementResult{}.Summary(2))
	assert.Equal(t, "Settlement successful! 3 transactions marked as paid. Invoice INV-7.",
		SettlementResult{TransactionsUpdated: 3, InvoiceNumber: "INV-7"}.Summary(2))
}

func TestReadyToSettleIDs(t *testing.T) {
	assert.Equal(t, []string{"P1"}, ReadyToSettleIDs(exampleTransactions()))
}

func TestMaskAccount(t *testing.T) {
	assert.Equal(t, "", MaskAccount(""))
	assert.Equal(t, "****6789", MaskAccount("123456789"))
	assert.Equal(t, "****12", MaskAccount("12"))

	m := Merchant{BankAccount: "000111222333", BankIFSC: "HDFC0001234"}
	assert.Equal(t, "HDFC0001234 | ****2333", m.BankLine())
	assert.Equal(t, "", Merchant{}.BankLine())
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdefgh...", Merchant{MerchantID: "abcdefghijkl"}.ShortID())
	assert.Equal(t, "short", Merchant{MerchantID: "short"}.ShortID())
}
