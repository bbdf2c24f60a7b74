package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventPayoutSettled is the message type of a completed mark-paid action.
const EventPayoutSettled = "payout.settled"

// PayoutSettledMessage tells downstream consumers that a merchant payout went through.
type PayoutSettledMessage struct {
	EventID         string    `json:"event_id"`
	MerchantID      string    `json:"merchant_id"`
	PaymentIDs      []string  `json:"payment_ids"`
	PayoutReference string    `json:"payout_reference"`
	InvoiceNumber   string    `json:"invoice_number,omitempty"`
	NetAmountPaise  int64     `json:"net_amount_paise"`
	EmailSent       bool      `json:"email_sent"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewPayoutSettledMessage stamps a message with a fresh event id and the current time.
func NewPayoutSettledMessage(merchantID string, paymentIDs []string, reference, invoice string, netPaise int64, emailSent bool) *PayoutSettledMessage {
	ids := make([]string, len(paymentIDs))
	copy(ids, paymentIDs)
	return &PayoutSettledMessage{
		EventID:         uuid.NewString(),
		MerchantID:      merchantID,
		PaymentIDs:      ids,
		PayoutReference: reference,
		InvoiceNumber:   invoice,
		NetAmountPaise:  netPaise,
		EmailSent:       emailSent,
		Timestamp:       time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PayoutSettledMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PayoutSettledMessageFromJSON parses a message body.
func PayoutSettledMessageFromJSON(data []byte) (*PayoutSettledMessage, error) {
	var msg PayoutSettledMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
