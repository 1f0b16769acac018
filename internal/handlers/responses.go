package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/counseling-portal-backend/internal/middleware"
	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/clientip"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
)

const maxUserAgentLength = 512

type SubmitResponseRequest struct {
	Answers []models.AnswerInput `json:"answers"`
}

type SubmitResponseResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	ResponseID  string    `json:"response_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ResponsesResponse struct {
	Success   bool                    `json:"success"`
	Responses []models.SurveyResponse `json:"responses"`
	Total     int                     `json:"total"`
}

type StatisticsResponse struct {
	Success    bool                     `json:"success"`
	Statistics *models.SurveyStatistics `json:"statistics"`
}

// SubmitResponse handles POST /api/surveys/{id}/responses.
// A respondent session is optional; without one the submission is anonymous.
func (h *SurveyHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, "responses.submit", err)
		return
	}

	var req SubmitResponseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, "responses.submit.parse_body", err.Error())
		return
	}

	response, err := h.Responses.SubmitResponse(r.Context(), id, req.Answers, h.respondent(r), provenance(r))
	if err != nil {
		writeError(w, r, "responses.submit", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, SubmitResponseResponse{
		Success:     true,
		Message:     "Response submitted successfully",
		ResponseID:  response.ID,
		SubmittedAt: response.SubmittedAt,
	})
}

// ListResponses handles GET /api/admin/surveys/{id}/responses
func (h *SurveyHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, "responses.list", err)
		return
	}

	responses, err := h.Responses.ListResponses(r.Context(), id)
	if err != nil {
		writeError(w, r, "responses.list", err)
		return
	}

	writeJSON(w, r, http.StatusOK, ResponsesResponse{
		Success:   true,
		Responses: responses,
		Total:     len(responses),
	})
}

// GetStatistics handles GET /api/admin/surveys/{id}/statistics
func (h *SurveyHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, "statistics.get", err)
		return
	}

	stats, err := h.Statistics.GetStatistics(r.Context(), id)
	if err != nil {
		writeError(w, r, "statistics.get", err)
		return
	}

	writeJSON(w, r, http.StatusOK, StatisticsResponse{Success: true, Statistics: stats})
}

// respondent resolves the bearer session of the caller, if any. Invalid or
// expired sessions submit as unknown respondents.
func (h *SurveyHandler) respondent(r *http.Request) *string {
	token := middleware.BearerToken(r)
	if token == "" || h.Identity == nil {
		return nil
	}

	userID, ok, err := h.Identity.ResolveRespondent(r.Context(), token)
	if err != nil {
		logger.Warnf("responses.submit.session: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &userID
}

func provenance(r *http.Request) models.Provenance {
	return models.Provenance{
		IPAddress: clientip.FromRequest(r),
		UserAgent: truncateUTF8(r.UserAgent(), maxUserAgentLength),
	}
}

// truncateUTF8 cuts s to at most max bytes on a rune boundary. Invalid byte
// sequences are dropped first; text columns reject them.
func truncateUTF8(s string, max int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
