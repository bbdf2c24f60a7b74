package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fluxadmin/internal/core"
	"fluxadmin/internal/services"
)

type merchantsPage struct {
	page
	services.MerchantList
	Buttons []filterButton
}

func (s *Server) handleMerchants(w http.ResponseWriter, r *http.Request) {
	filter, err := core.ParseMerchantFilter(r.URL.Query().Get("filter"))
	if err != nil {
		s.readFailed(w, r, "merchants", err)
		return
	}
	list, err := s.settlements.MerchantList(r.Context(), filter)
	if err != nil {
		s.readFailed(w, r, "merchants", err)
		return
	}
	s.render(w, r, http.StatusOK, "merchants.html", merchantsPage{
		page:         s.newPage(r, "All Merchants", "merchants"),
		MerchantList: list,
		Buttons:      merchantButtons(list.Counts, filter),
	})
}

type merchantPage struct {
	page
	services.MerchantView
	Buttons []filterButton
	// Total is the unfiltered transaction count.
	Total int
}

func (s *Server) handleMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	filter, err := core.ParseTransactionFilter(r.URL.Query().Get("filter"))
	if err != nil {
		s.readFailed(w, r, "merchant", err)
		return
	}
	view, err := s.settlements.MerchantView(r.Context(), merchantID, filter)
	if err != nil {
		s.readFailed(w, r, "merchant", err)
		return
	}
	s.render(w, r, http.StatusOK, "merchant.html", merchantPage{
		page:         s.newPage(r, view.Merchant.MerchantName, "merchants"),
		MerchantView: view,
		Buttons:      transactionButtons(merchantPath(merchantID), view.Counts, filter),
		Total:        view.Rollup.TotalCount,
	})
}
