package http

import (
	"net/http"

	"outlay/internal/core"
)

const categoryCacheKey = "all"

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categoryCache.Get(categoryCacheKey)
	if !ok {
		var err error
		cats, err = s.repo.ListCategories(r.Context())
		if err != nil {
			respondDomainError(w, err)
			return
		}
		s.categoryCache.Set(categoryCacheKey, cats)
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}
}
