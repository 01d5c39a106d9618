package http

import (
	"context"
	"net/http"
	"time"

	"zawadi/internal/core"
)

type householdJSON struct {
	HouseNo        string    `json:"house_no"`
	FamilyName     string    `json:"family_name"`
	Lane           string    `json:"lane,omitempty"`
	RateCategory   string    `json:"rate_category,omitempty"`
	Email          string    `json:"email,omitempty"`
	MonthsCents    [12]int64 `json:"months_cents"`
	YTDCents       int64     `json:"ytd_cents"`
	YTD            string    `json:"ytd"`
	CumulativeDebt int64     `json:"cumulative_debt_cents"`
	CurrentDebt    int64     `json:"current_debt_cents"`
	CurrentDebtKES string    `json:"current_debt"`
	Status         string    `json:"status"`
	Remarks        string    `json:"remarks,omitempty"`
	UpdatedAt      string    `json:"updated_at,omitempty"`
}

func toHouseholdJSON(h core.Household) householdJSON {
	out := householdJSON{
		HouseNo:        h.HouseNo,
		FamilyName:     h.FamilyName,
		Lane:           h.Lane,
		RateCategory:   h.RateCategory,
		Email:          h.Email,
		YTDCents:       h.YearToDate.Cents,
		YTD:            core.FormatKES(h.YearToDate.Cents),
		CumulativeDebt: h.CumulativeDebt.Cents,
		CurrentDebt:    h.CurrentDebt.Cents,
		CurrentDebtKES: core.FormatKES(h.CurrentDebt.Cents),
		Status:         h.Status,
		Remarks:        h.Remarks,
	}
	for i, m := range h.Months {
		out.MonthsCents[i] = m.Cents
	}
	if !h.UpdatedAt.IsZero() {
		out.UpdatedAt = h.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

type requestJSON struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	RequestedBy string `json:"requested_by"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	Remarks     string `json:"remarks,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`

	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	HouseNo     string `json:"house_no,omitempty"`
	Month       int    `json:"month,omitempty"`
	Event       string `json:"event,omitempty"`
	Type        string `json:"type,omitempty"`
}

func toRequestJSON(r core.Request) requestJSON {
	out := requestJSON{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Date:        r.Date.String(),
		RequestedBy: r.RequestedBy,
		AmountCents: r.Amount.Cents,
		Amount:      core.FormatKES(r.Amount.Cents),
		Status:      string(r.Status),
		Remarks:     r.Remarks,
		Description: r.Description,
		Category:    r.Category,
		HouseNo:     r.HouseNo,
		Month:       r.Month,
		Event:       r.Event,
		Type:        r.Type,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return out
}

type cashJSON struct {
	CarriedForwardCents int64  `json:"carried_forward_cents"`
	WithdrawalCents     int64  `json:"withdrawal_cents"`
	BalanceCents        int64  `json:"balance_cents"`
	Balance             string `json:"balance"`
	UpdatedAt           string `json:"updated_at,omitempty"`
}

func toCashJSON(p core.CashPosition) cashJSON {
	out := cashJSON{
		CarriedForwardCents: p.BalanceCarriedForward.Cents,
		WithdrawalCents:     p.Withdrawal.Cents,
		BalanceCents:        p.Balance.Cents,
		Balance:             core.FormatKES(p.Balance.Cents),
	}
	if !p.UpdatedAt.IsZero() {
		out.UpdatedAt = p.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady verifies the database answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.svc.GetCashPosition(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleHouseholds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	households, ok := s.householdsCache.Get(cacheKeyHouseholds)
	if !ok {
		var err error
		households, err = s.svc.ListHouseholds(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		s.householdsCache.Set(cacheKeyHouseholds, households)
	}

	out := make([]householdJSON, len(households))
	for i, h := range households {
		out[i] = toHouseholdJSON(h)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHouseholdContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, "PUT")
		return
	}

	var body struct {
		HouseNo      string `json:"house_no"`
		RateCategory string `json:"rate_category"`
		Email        string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	h, err := s.svc.UpdateHouseholdContact(r.Context(),
		sanitizeInput(body.HouseNo), sanitizeInput(body.RateCategory), sanitizeInput(body.Email))
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, toHouseholdJSON(h))
}

func (s *Server) handlePostContribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var body struct {
		HouseNo string `json:"house_no"`
		Month   int    `json:"month"`
		Amount  string `json:"amount"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	h, err := s.svc.PostMonthlyContribution(r.Context(), sanitizeInput(body.HouseNo), body.Month, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, toHouseholdJSON(h))
}

func (s *Server) handleCarryForward(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var body struct {
		Year int `json:"year"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	rolled, err := s.svc.CarryForwardDebt(r.Context(), body.Year)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, map[string]int{"households_rolled": rolled})
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	expenses, err := s.svc.ListExpenses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type expenseJSON struct {
		ID          int64  `json:"id"`
		Date        string `json:"date"`
		Description string `json:"description"`
		Category    string `json:"category,omitempty"`
		Vendor      string `json:"vendor,omitempty"`
		AmountCents int64  `json:"amount_cents"`
		Amount      string `json:"amount"`
		PaymentMode string `json:"payment_mode,omitempty"`
		Remarks     string `json:"remarks,omitempty"`
		ReceiptRef  string `json:"receipt_ref,omitempty"`
	}
	out := make([]expenseJSON, len(expenses))
	for i, e := range expenses {
		out[i] = expenseJSON{
			ID:          e.ID,
			Date:        e.Date.String(),
			Description: e.Description,
			Category:    e.Category,
			Vendor:      e.Vendor,
			AmountCents: e.Amount.Cents,
			Amount:      core.FormatKES(e.Amount.Cents),
			PaymentMode: e.PaymentMode,
			Remarks:     e.Remarks,
			ReceiptRef:  e.ReceiptRef,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExpenseCorrections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var body struct {
		ID         int64  `json:"id"`
		Remarks    string `json:"remarks"`
		ReceiptRef string `json:"receipt_ref"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	err := s.svc.UpdateExpenseCorrections(r.Context(), body.ID,
		sanitizeInput(body.Remarks), sanitizeInput(body.ReceiptRef))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleSpecial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	entries, err := s.svc.ListSpecial(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type specialJSON struct {
		ID           int64  `json:"id"`
		Date         string `json:"date"`
		Event        string `json:"event"`
		Type         string `json:"type"`
		Contributors string `json:"contributors,omitempty"`
		AmountCents  int64  `json:"amount_cents"`
		Amount       string `json:"amount"`
		Remarks      string `json:"remarks,omitempty"`
	}
	out := make([]specialJSON, len(entries))
	for i, sc := range entries {
		out[i] = specialJSON{
			ID:           sc.ID,
			Date:         sc.Date.String(),
			Event:        sc.Event,
			Type:         sc.Type,
			Contributors: sc.Contributors,
			AmountCents:  sc.Amount.Cents,
			Amount:       core.FormatKES(sc.Amount.Cents),
			Remarks:      sc.Remarks,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rates, err := s.svc.ListRates(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		type rateJSON struct {
			RateCategory string `json:"rate_category"`
			AmountCents  int64  `json:"amount_cents"`
			Amount       string `json:"amount"`
		}
		out := make([]rateJSON, len(rates))
		for i, rc := range rates {
			out[i] = rateJSON{
				RateCategory: rc.Name,
				AmountCents:  rc.MonthlyAmount.Cents,
				Amount:       core.FormatKES(rc.MonthlyAmount.Cents),
			}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPut:
		var body struct {
			RateCategory string `json:"rate_category"`
			Amount       string `json:"amount"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, err)
			return
		}
		amount, err := parseAmount(body.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		err = s.svc.UpsertRate(r.Context(), core.RateCategory{
			Name:          sanitizeInput(body.RateCategory),
			MonthlyAmount: amount,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		s.invalidateCaches()
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})

	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

func (s *Server) handleCash(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pos, ok := s.cashCache.Get(cacheKeyCash)
		if !ok {
			var err error
			pos, err = s.svc.GetCashPosition(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			s.cashCache.Set(cacheKeyCash, pos)
		}
		writeJSON(w, http.StatusOK, toCashJSON(pos))

	case http.MethodPut:
		var body struct {
			CarriedForward string `json:"carried_forward"`
			Withdrawal     string `json:"withdrawal"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, err)
			return
		}
		cf, err := parseAmount(body.CarriedForward)
		if err != nil {
			writeError(w, err)
			return
		}
		wd, err := parseAmount(body.Withdrawal)
		if err != nil {
			writeError(w, err)
			return
		}
		pos, err := s.svc.SetCashOpening(r.Context(), cf, wd)
		if err != nil {
			writeError(w, err)
			return
		}
		s.invalidateCaches()
		writeJSON(w, http.StatusOK, toCashJSON(pos))

	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		kind := core.RequestKind(r.URL.Query().Get("kind"))
		status := core.RequestStatus(r.URL.Query().Get("status"))
		requests, err := s.svc.ListRequests(r.Context(), kind, status)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]requestJSON, len(requests))
		for i, req := range requests {
			out[i] = toRequestJSON(req)
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var body struct {
			Kind        string `json:"kind"`
			Date        string `json:"date"`
			RequestedBy string `json:"requested_by"`
			Amount      string `json:"amount"`
			Remarks     string `json:"remarks"`
			Description string `json:"description"`
			Category    string `json:"category"`
			HouseNo     string `json:"house_no"`
			Month       int    `json:"month"`
			Event       string `json:"event"`
			Type        string `json:"type"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, err)
			return
		}
		date, err := parseDate(body.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		amount, err := parseAmount(body.Amount)
		if err != nil {
			writeError(w, err)
			return
		}

		req, err := s.svc.SubmitRequest(r.Context(), core.Request{
			Kind:        core.RequestKind(body.Kind),
			Date:        date,
			RequestedBy: sanitizeInput(body.RequestedBy),
			Amount:      amount,
			Remarks:     sanitizeInput(body.Remarks),
			Description: sanitizeInput(body.Description),
			Category:    sanitizeInput(body.Category),
			HouseNo:     sanitizeInput(body.HouseNo),
			Month:       body.Month,
			Event:       sanitizeInput(body.Event),
			Type:        sanitizeInput(body.Type),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRequestJSON(req))

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

type reviewBody struct {
	Kind     string `json:"kind"`
	ID       int64  `json:"id"`
	Reviewer string `json:"reviewer"`
	Note     string `json:"note"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var body reviewBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.svc.ApproveRequest(r.Context(), core.RequestKind(body.Kind), body.ID,
		sanitizeInput(body.Reviewer), sanitizeInput(body.Note))
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCaches()

	writeJSON(w, http.StatusOK, map[string]any{
		"request":         toRequestJSON(res.Request),
		"materialized_id": res.MaterializedID,
		"cash":            toCashJSON(res.Cash),
	})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var body reviewBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	req, err := s.svc.RejectRequest(r.Context(), core.RequestKind(body.Kind), body.ID,
		sanitizeInput(body.Reviewer), sanitizeInput(body.Note))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestJSON(req))
}
