package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/internal/services"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
)

// SurveyHandler serves the survey API on top of the survey engine services
type SurveyHandler struct {
	Surveys    *services.SurveyService
	Responses  *services.ResponseService
	Statistics *services.StatisticsService
	Identity   services.IdentityResolver
}

// CreateSurveyRequest is a survey header plus its initial questions
type CreateSurveyRequest struct {
	models.SurveyInput
	Questions []models.QuestionInput `json:"questions"`
}

// UpdateSurveyRequest patches the header. When questions is present, even as
// an empty array, it replaces every question of the survey.
type UpdateSurveyRequest struct {
	models.SurveyPatch
	Questions *[]models.QuestionInput `json:"questions"`
}

type SurveyResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message,omitempty"`
	Survey  *models.SurveyDefinition `json:"survey"`
}

type SurveysResponse struct {
	Success bool                      `json:"success"`
	Surveys []models.SurveyDefinition `json:"surveys"`
	Total   int                       `json:"total"`
}

// CreateSurvey handles POST /api/admin/surveys
func (h *SurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req CreateSurveyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, "surveys.create.parse_body", err.Error())
		return
	}

	survey, err := h.Surveys.CreateSurvey(r.Context(), req.SurveyInput, req.Questions)
	if err != nil {
		writeError(w, r, "surveys.create", err)
		return
	}
	if full, err := h.Surveys.GetSurvey(r.Context(), survey.ID); err == nil {
		survey = full
	}

	writeJSON(w, r, http.StatusCreated, SurveyResponse{
		Success: true,
		Message: "Survey created successfully",
		Survey:  survey,
	})
}

// UpdateSurvey handles PUT /api/admin/surveys/{id}
func (h *SurveyHandler) UpdateSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, "surveys.update", err)
		return
	}

	var req UpdateSurveyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, "surveys.update.parse_body", err.Error())
		return
	}

	var questions []models.QuestionInput
	if req.Questions != nil {
		questions = *req.Questions
		if questions == nil {
			questions = []models.QuestionInput{}
		}
	}

	if _, err := h.Surveys.UpdateSurvey(r.Context(), id, req.SurveyPatch, questions); err != nil {
		writeError(w, r, "surveys.update", err)
		return
	}

	survey, err := h.Surveys.GetSurvey(r.Context(), id)
	if err != nil {
		writeError(w, r, "surveys.update.reload", err)
		return
	}

	writeJSON(w, r, http.StatusOK, SurveyResponse{
		Success: true,
		Message: "Survey updated successfully",
		Survey:  survey,
	})
}

// DeleteSurvey handles DELETE /api/admin/surveys/{id}
func (h *SurveyHandler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, "surveys.delete", err)
		return
	}

	if err := h.Surveys.DeleteSurvey(r.Context(), id); err != nil {
		writeError(w, r, "surveys.delete", err)
		return
	}

	writeJSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: "Survey deleted successfully"})
}

// AdminListSurveys handles GET /api/admin/surveys?status=
func (h *SurveyHandler) AdminListSurveys(w http.ResponseWriter, r *http.Request) {
	var status *models.SurveyStatus
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		st := models.SurveyStatus(strings.ToLower(s))
		status = &st
	}
	h.listSurveys(w, r, status)
}

// AdminGetSurvey handles GET /api/admin/surveys/{id}
func (h *SurveyHandler) AdminGetSurvey(w http.ResponseWriter, r *http.Request) {
	h.getSurvey(w, r, false)
}

// ListActiveSurveys handles GET /api/surveys
func (h *SurveyHandler) ListActiveSurveys(w http.ResponseWriter, r *http.Request) {
	active := models.SurveyStatusActive
	h.listSurveys(w, r, &active)
}

// GetActiveSurvey handles GET /api/surveys/{id}. Surveys that are not active
// are not visible to respondents.
func (h *SurveyHandler) GetActiveSurvey(w http.ResponseWriter, r *http.Request) {
	h.getSurvey(w, r, true)
}

func (h *SurveyHandler) listSurveys(w http.ResponseWriter, r *http.Request, status *models.SurveyStatus) {
	surveys, err := h.Surveys.ListSurveys(r.Context(), status)
	if err != nil {
		writeError(w, r, "surveys.list", err)
		return
	}

	writeJSON(w, r, http.StatusOK, SurveysResponse{
		Success: true,
		Surveys: surveys,
		Total:   len(surveys),
	})
}

func (h *SurveyHandler) getSurvey(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, "surveys.get", err)
		return
	}

	survey, err := h.Surveys.GetSurvey(r.Context(), id)
	if err != nil {
		writeError(w, r, "surveys.get", err)
		return
	}
	if activeOnly && survey.Status != models.SurveyStatusActive {
		writeError(w, r, "surveys.get", fault.ErrSurveyNotFound)
		return
	}

	writeJSON(w, r, http.StatusOK, SurveyResponse{Success: true, Survey: survey})
}
