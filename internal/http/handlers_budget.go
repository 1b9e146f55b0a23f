package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"outlay/internal/core"
)

type budgetRequest struct {
	CategoryID string  `json:"category_id"`
	Amount     float64 `json:"amount"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
}

type budgetResponse struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Amount     float64   `json:"amount"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	CreatedAt  time.Time `json:"created_at"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount.Float64(),
		Month:      b.Month,
		Year:       b.Year,
		CreatedAt:  b.CreatedAt,
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, _ := strconv.Atoi(q.Get("month"))
	year, _ := strconv.Atoi(q.Get("year"))

	budgets, err := s.repo.ListBudgets(r.Context(), ownerID(r), month, year)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b := core.Budget{
		OwnerID:    ownerID(r),
		CategoryID: req.CategoryID,
		Amount:     core.MoneyFromFloat(req.Amount),
		Month:      req.Month,
		Year:       req.Year,
	}
	if err := b.Validate(); err != nil {
		respondDomainError(w, err)
		return
	}

	saved, err := s.repo.InsertBudget(r.Context(), b)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toBudgetResponse(saved))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b := core.Budget{
		ID:         chi.URLParam(r, "id"),
		OwnerID:    ownerID(r),
		CategoryID: req.CategoryID,
		Amount:     core.MoneyFromFloat(req.Amount),
		Month:      req.Month,
		Year:       req.Year,
	}
	if err := b.Validate(); err != nil {
		respondDomainError(w, err)
		return
	}

	if err := s.repo.UpdateBudget(r.Context(), b); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteBudget(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
