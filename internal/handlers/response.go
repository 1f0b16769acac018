package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// MessageResponse is the envelope used for errors and bodiless successes
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// writeError maps err to a status code. Internal failures are logged under code
// and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, code string, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.NotFound:
		status = http.StatusNotFound
	case fault.NotActive, fault.Duplicate:
		status = http.StatusConflict
	case fault.Invalid:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Errorf("%s: %v", code, err)
	} else {
		logger.Debugf("%s: %v", code, err)
	}

	writeJSON(w, r, status, MessageResponse{Success: false, Message: fault.Message(err)})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, code string, message string) {
	logger.Debugf("%s: %s", code, message)
	writeJSON(w, r, http.StatusBadRequest, MessageResponse{Success: false, Message: message})
}

// decodeBody reads a JSON request body of at most maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("Request body too large")
		}
		return errors.New("Invalid request body")
	}
	return nil
}

// surveyID returns the {id} path parameter. Ids that are not UUIDs can never
// match a survey and are reported as not found.
func surveyID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", fault.ErrSurveyNotFound
	}
	return id.String(), nil
}
