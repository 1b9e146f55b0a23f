package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"outlay/internal/core"
)

type templateRequest struct {
	CategoryID  string  `json:"category_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Frequency   string  `json:"frequency"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type templateResponse struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Frequency   string    `json:"frequency"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type generateRequest struct {
	Date string `json:"date,omitempty"`
}

type generateResponse struct {
	Generated int `json:"generated"`
}

func toTemplateResponse(t core.RecurringTemplate) templateResponse {
	resp := templateResponse{
		ID:          t.ID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount.Float64(),
		Description: t.Description,
		Frequency:   string(t.Frequency),
		StartDate:   t.StartDate.String(),
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
	}
	if !t.EndDate.IsZero() {
		resp.EndDate = t.EndDate.String()
	}
	return resp
}

func (s *Server) templateFromRequest(r *http.Request, req templateRequest) (core.RecurringTemplate, string) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringTemplate{}, "invalid start_date, expected YYYY-MM-DD"
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return core.RecurringTemplate{}, "invalid end_date, expected YYYY-MM-DD"
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return core.RecurringTemplate{
		OwnerID:     ownerID(r),
		CategoryID:  req.CategoryID,
		Amount:      core.MoneyFromFloat(req.Amount),
		Description: req.Description,
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
		EndDate:     end,
		IsActive:    active,
	}, ""
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.repo.ListTemplates(r.Context(), ownerID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, msg := s.templateFromRequest(r, req)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := t.Validate(); err != nil {
		respondDomainError(w, err)
		return
	}

	saved, err := s.repo.InsertTemplate(r.Context(), t)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTemplateResponse(saved))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.repo.GetTemplate(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTemplateResponse(t))
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, msg := s.templateFromRequest(r, req)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	t.ID = chi.URLParam(r, "id")
	if err := t.Validate(); err != nil {
		respondDomainError(w, err)
		return
	}

	if err := s.repo.UpdateTemplate(r.Context(), t); err != nil {
		respondDomainError(w, err)
		return
	}

	updated, err := s.repo.GetTemplate(r.Context(), t.OwnerID, t.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTemplateResponse(updated))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteTemplate(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// handleGenerate materializes due expenses for the authenticated user.
// The evaluation date defaults to today and can be overridden in the
// body, which makes catch-up runs and testing reproducible.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	asOf := core.Today()
	if r.ContentLength > 0 {
		var req generateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Date != "" {
			parsed, err := core.ParseDate(req.Date)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
				return
			}
			asOf = parsed
		}
	}

	n, err := s.generator.GenerateForUser(r.Context(), ownerID(r), asOf)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, generateResponse{Generated: n})
}

// handlePreview lists the templates due on a date without generating.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	asOf := core.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	due, err := s.generator.PreviewForUser(r.Context(), ownerID(r), asOf)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]templateResponse, 0, len(due))
	for _, t := range due {
		out = append(out, toTemplateResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}
