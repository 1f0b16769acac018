package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
)

// SurveyStore is the persistence layer behind the survey engine.
//
// Lookups of a missing survey return fault.ErrSurveyNotFound. InsertResponse
// returns fault.ErrUniqueViolation when (SurveyID, RespondentKey) is taken.
type SurveyStore interface {
	InsertSurvey(ctx context.Context, survey *models.SurveyDefinition) error
	UpdateSurvey(ctx context.Context, id string, patch models.SurveyPatch, updatedAt time.Time) (*models.SurveyDefinition, error)
	// DeleteSurvey removes the survey with its questions, responses and answers.
	DeleteSurvey(ctx context.Context, id string) error
	GetSurvey(ctx context.Context, id string) (*models.SurveyDefinition, error)
	// ListSurveys returns headers newest first. A nil status lists all surveys.
	ListSurveys(ctx context.Context, status *models.SurveyStatus) ([]models.SurveyDefinition, error)

	InsertQuestions(ctx context.Context, questions []models.SurveyQuestion) error
	// ReplaceQuestions deletes every question of the survey, then inserts questions,
	// as atomically as the backend allows.
	ReplaceQuestions(ctx context.Context, surveyID string, questions []models.SurveyQuestion) error
	// ListQuestions returns questions ordered by OrderIndex, then Position.
	ListQuestions(ctx context.Context, surveyID string) ([]models.SurveyQuestion, error)

	InsertResponse(ctx context.Context, response *models.SurveyResponse) error
	DeleteResponse(ctx context.Context, id string) error
	CountResponses(ctx context.Context, surveyID string) (int, error)
	HasRespondentKey(ctx context.Context, surveyID string, respondentKey string) (bool, error)
	// ListResponses returns responses newest first, without answers attached.
	ListResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error)

	InsertAnswers(ctx context.Context, answers []models.SurveyAnswer) error
	ListAnswersByQuestion(ctx context.Context, questionID string) ([]models.SurveyAnswer, error)
	ListAnswersByResponses(ctx context.Context, responseIDs []string) ([]models.SurveyAnswer, error)
}

// Clock supplies timestamps. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
