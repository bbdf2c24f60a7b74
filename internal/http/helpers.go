package http

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"fluxadmin/internal/admin"
	"fluxadmin/internal/core"
	"fluxadmin/internal/services"
)

// templateFuncs are available to every console template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.String() },
		"moneyOrDash": func(m core.Money) string {
			if m.Paise <= 0 {
				return "-"
			}
			return m.String()
		},
		"orNotProvided": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "Not provided"
			}
			return s
		},
		"bucket": core.Classify,
		"bucketClass": func(b core.Bucket) string {
			switch b {
			case core.BucketPaid:
				return "paid"
			case core.BucketReadyToSettle:
				return "unpaid"
			default:
				return "pending"
			}
		},
		"hasFees": func(tx core.Transaction) bool {
			return tx.GatewayFee.Paise > 0 || tx.PlatformFee.Paise > 0
		},
		"merchantPath": merchantPath,
		"settlePath": func(id string) string {
			return "/settlements/" + url.PathEscape(id)
		},
	}
}

func merchantPath(id string) string {
	return "/merchants/" + url.PathEscape(id)
}

// filterButton is one selector above a list, with its match count.
type filterButton struct {
	Label  string
	Count  int
	URL    string
	Active bool
}

func transactionButtons(base string, counts map[core.TransactionFilter]int, active core.TransactionFilter) []filterButton {
	out := make([]filterButton, 0, 4)
	for _, f := range core.TransactionFilters() {
		out = append(out, filterButton{
			Label:  f.Label(),
			Count:  counts[f],
			URL:    base + "?filter=" + url.QueryEscape(string(f)),
			Active: f == active,
		})
	}
	return out
}

func merchantButtons(counts map[core.MerchantFilter]int, active core.MerchantFilter) []filterButton {
	out := make([]filterButton, 0, 4)
	for _, f := range core.MerchantFilters() {
		out = append(out, filterButton{
			Label:  f.Label(),
			Count:  counts[f],
			URL:    "/merchants?filter=" + url.QueryEscape(string(f)),
			Active: f == active,
		})
	}
	return out
}

// statusFor maps a read error to the status of the error page.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownFilter):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrMerchantNotFound),
		errors.Is(err, services.ErrPayoutNotFound),
		admin.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSettlementInProgress):
		return http.StatusConflict
	case isValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyReference) ||
		errors.Is(err, core.ErrNoPayments) ||
		errors.Is(err, core.ErrMissingMerchant) ||
		errors.Is(err, core.ErrDuplicatePayment)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// sameIDs reports whether a and b hold the same ids regardless of order.
func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

func sumPayable(payouts []core.PendingPayout) core.Money {
	var total core.Money
	for _, p := range payouts {
		total = total.Add(p.TotalPayable)
	}
	return total
}
