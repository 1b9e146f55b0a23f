package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"outlay/internal/core"
	"outlay/internal/storage"
)

type expenseRequest struct {
	CategoryID  string  `json:"category_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

type expenseResponse struct {
	ID               string    `json:"id"`
	CategoryID       string    `json:"category_id"`
	Amount           float64   `json:"amount"`
	Description      string    `json:"description"`
	Date             string    `json:"date"`
	SourceTemplateID string    `json:"source_template_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:               e.ID,
		CategoryID:       e.CategoryID,
		Amount:           e.Amount.Float64(),
		Description:      e.Description,
		Date:             e.Date.String(),
		SourceTemplateID: e.SourceTemplateID,
		CreatedAt:        e.CreatedAt,
	}
}

func toExpenseResponses(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseOptionalDate(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
		return
	}
	to, err := parseOptionalDate(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
		return
	}

	filter := storage.ExpenseFilter{
		CategoryID: q.Get("category_id"),
		From:       from,
		To:         to,
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	expenses, err := s.repo.ListExpenses(r.Context(), ownerID(r), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponses(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	saved, err := s.expenses.CreateExpense(r.Context(), core.Expense{
		OwnerID:     ownerID(r),
		CategoryID:  req.CategoryID,
		Amount:      core.MoneyFromFloat(req.Amount),
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toExpenseResponse(saved))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.repo.GetExpense(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	e := core.Expense{
		ID:          chi.URLParam(r, "id"),
		OwnerID:     ownerID(r),
		CategoryID:  req.CategoryID,
		Amount:      core.MoneyFromFloat(req.Amount),
		Description: req.Description,
		Date:        date,
	}
	if err := s.expenses.UpdateExpense(r.Context(), e); err != nil {
		respondDomainError(w, err)
		return
	}

	updated, err := s.repo.GetExpense(r.Context(), e.OwnerID, e.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.DeleteExpense(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
