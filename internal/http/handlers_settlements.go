package http

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fluxadmin/internal/core"
	applog "fluxadmin/internal/log"
	"fluxadmin/internal/services"
)

type overviewPage struct {
	page
	Stats         core.Stats
	Totals        core.GlobalTotals
	Mismatches    []string
	PendingCount  int
	MerchantCount int
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	d, err := s.settlements.Dashboard(r.Context())
	if err != nil {
		s.readFailed(w, r, "overview", err)
		return
	}
	s.render(w, r, http.StatusOK, "overview.html", overviewPage{
		page:          s.newPage(r, "Financial Overview", "overview"),
		Stats:         d.Stats,
		Totals:        d.Totals,
		Mismatches:    d.Mismatches,
		PendingCount:  len(d.Payouts),
		MerchantCount: len(d.Merchants),
	})
}

type settlementsPage struct {
	page
	Payouts []core.PendingPayout
	Total   core.Money
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	payouts, err := s.settlements.PendingPayouts(r.Context())
	if err != nil {
		s.readFailed(w, r, "settlements", err)
		return
	}
	s.render(w, r, http.StatusOK, "settlements.html", settlementsPage{
		page:    s.newPage(r, "Pending Settlements", "settlements"),
		Payouts: payouts,
		Total:   sumPayable(payouts),
	})
}

// settleForm is the confirmation modal for one pending payout.
type settleForm struct {
	page
	services.PayoutPreview
	InProgress bool
}

func (s *Server) handleSettleForm(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	preview, err := s.settlements.PayoutPreview(r.Context(), merchantID)
	if err != nil {
		s.readFailed(w, r, "settle_form", err)
		return
	}
	form := settleForm{
		page:          s.newPage(r, "Settle Payout", "settlements"),
		PayoutPreview: preview,
		InProgress:    s.settlements.InProgress(merchantID),
	}
	if isHTMX(r) {
		s.render(w, r, http.StatusOK, "settle_form", form)
		return
	}
	s.render(w, r, http.StatusOK, "settle.html", form)
}

// handleSettle submits the UTR for a merchant's pending payout.
//
// An empty reference is rejected before any backend call. When the form
// carries the payment ids it displayed, they must still match the pending
// payout so the operator never settles a set they did not see.
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	merchantID := chi.URLParam(r, "merchantID")

	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form submission").Write(w)
		return
	}
	// Settle sanitizes the reference; here it is only checked for content.
	reference := r.PostFormValue("utr")
	if services.SanitizeReference(reference) == "" {
		logger.InfoContext(ctx, "Settlement rejected: empty reference",
			applog.FieldMerchantID, merchantID,
			"error_type", applog.ErrorTypeValidation)
		UnprocessableEntityError("Please enter a UTR/Reference").Write(w)
		return
	}

	payout, err := s.settlements.PendingPayout(ctx, merchantID)
	if err != nil {
		status := statusFor(err)
		ErrorResponse(status, "Error: "+err.Error()).
			TriggerErrorNotification("Error: " + err.Error()).
			Write(w)
		return
	}
	if shown := r.PostForm["payment_id"]; len(shown) > 0 && !sameIDs(shown, payout.PaymentIDs) {
		logger.WarnContext(ctx, "Settlement rejected: pending payout changed",
			applog.FieldMerchantID, merchantID,
			"shown", len(shown),
			"pending", len(payout.PaymentIDs),
			"error_type", applog.ErrorTypeConflict)
		msg := "The pending payout changed since it was displayed. Close and reopen the settlement."
		ErrorResponse(http.StatusConflict, msg).TriggerErrorNotification(msg).Write(w)
		return
	}

	req := core.NewPayoutRequest(payout, reference)
	res, err := s.settlements.Settle(ctx, req)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, services.ErrSettlementInProgress):
			status = http.StatusConflict
		case isValidationError(err):
			status = http.StatusUnprocessableEntity
		}
		msg := "Error: " + err.Error()
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}

	msg := res.Summary(len(req.PaymentIDs))
	if !isHTMX(r) {
		http.Redirect(w, r, "/settlements", http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		TriggerPayoutSettled(merchantID, len(req.PaymentIDs)).
		TriggerModalClose().
		TriggerSuccessNotification(msg).
		Refresh().
		BodyHTML(`<div class="success" role="status">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.settlements.Invalidate()
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		TriggerNotification(NotificationInfo, "Data reloaded from the backend", 2000).
		Refresh().
		Write(w)
}
