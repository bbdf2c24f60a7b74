package services

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"fluxadmin/internal/core"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeReference cleans an operator-typed payout reference: markup and
// unprintable characters are removed and surrounding space trimmed. The
// result is plain text; entities the policy emits are decoded again so
// "A&B" stays "A&B".
func SanitizeReference(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// sanitizeRequest returns a copy of req with every field cleaned.
func sanitizeRequest(req core.PayoutRequest) core.PayoutRequest {
	out := core.PayoutRequest{
		MerchantID:      strings.TrimSpace(req.MerchantID),
		PayoutReference: SanitizeReference(req.PayoutReference),
		PaymentIDs:      make([]string, 0, len(req.PaymentIDs)),
	}
	for _, id := range req.PaymentIDs {
		out.PaymentIDs = append(out.PaymentIDs, strings.TrimSpace(id))
	}
	return out
}
