package routes

import (
	"net/http"

	"github.com/AnshRaj112/counseling-portal-backend/internal/handlers"
	"github.com/AnshRaj112/counseling-portal-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the survey API. submitLimit guards response submission.
func SetupRoutes(r chi.Router, h *handlers.SurveyHandler, submitLimit func(http.Handler) http.Handler) {
	// Public survey routes (respondents)
	r.Get("/api/surveys", h.ListActiveSurveys)
	r.Get("/api/surveys/{id}", h.GetActiveSurvey)
	r.With(submitLimit).Post("/api/surveys/{id}/responses", h.SubmitResponse)

	// Admin survey routes
	r.Route("/api/admin/surveys", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.Identity))

		r.Post("/", h.CreateSurvey)
		r.Get("/", h.AdminListSurveys)
		r.Get("/{id}", h.AdminGetSurvey)
		r.Put("/{id}", h.UpdateSurvey)
		r.Delete("/{id}", h.DeleteSurvey)

		r.Get("/{id}/responses", h.ListResponses)
		r.Get("/{id}/statistics", h.GetStatistics)
	})
}
