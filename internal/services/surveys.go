package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
	"github.com/google/uuid"
)

const maxTitleLength = 255

// SurveyService manages survey definitions and serves the read-only listing views.
type SurveyService struct {
	store SurveyStore
	clock Clock
}

func NewSurveyService(store SurveyStore, clock Clock) *SurveyService {
	return &SurveyService{store: store, clock: clock}
}

// CreateSurvey persists the header and then its questions. When the questions
// cannot be stored the header is deleted again. The returned survey has no
// questions attached.
func (s *SurveyService) CreateSurvey(ctx context.Context, in models.SurveyInput, questions []models.QuestionInput) (*models.SurveyDefinition, error) {
	if in.Status == "" {
		in.Status = models.SurveyStatusDraft
	}
	if err := validateHeader(in.Title, in.Status, in.MaxResponses); err != nil {
		return nil, err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, fault.Invalidf("end_date must not be before start_date")
	}
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}

	now := s.clock.now()
	survey := &models.SurveyDefinition{
		ID:                     uuid.New().String(),
		Title:                  strings.TrimSpace(in.Title),
		Description:            in.Description,
		Status:                 in.Status,
		StartDate:              in.StartDate,
		EndDate:                in.EndDate,
		IsAnonymous:            in.IsAnonymous,
		AllowMultipleResponses: in.AllowMultipleResponses,
		MaxResponses:           in.MaxResponses,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.store.InsertSurvey(ctx, survey); err != nil {
		return nil, fault.Storage("insert survey", err)
	}

	if len(questions) > 0 {
		if err := s.store.InsertQuestions(ctx, buildQuestions(survey.ID, questions, now)); err != nil {
			if delErr := s.store.DeleteSurvey(ctx, survey.ID); delErr != nil {
				logger.Errorf("surveys.create: rollback of survey %s failed: %v", survey.ID, delErr)
				return nil, fault.Storage("insert questions", errors.Join(err, delErr))
			}
			return nil, fault.Storage("insert questions", err)
		}
	}

	return survey, nil
}

// UpdateSurvey applies patch to the header. A non-nil questions slice, even an
// empty one, replaces the whole question set; nil leaves the questions untouched.
func (s *SurveyService) UpdateSurvey(ctx context.Context, id string, patch models.SurveyPatch, questions []models.QuestionInput) (*models.SurveyDefinition, error) {
	current, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, fault.Storage("get survey", err)
	}

	if field, ok := patch.Conflicts(); ok {
		return nil, fault.Invalidf("%s cannot be set and cleared at once", field)
	}

	merged := *current
	patch.Apply(&merged)
	if err := validateHeader(merged.Title, merged.Status, merged.MaxResponses); err != nil {
		return nil, err
	}
	if merged.StartDate != nil && merged.EndDate != nil && merged.EndDate.Before(*merged.StartDate) {
		return nil, fault.Invalidf("end_date must not be before start_date")
	}
	if questions != nil {
		if err := validateQuestions(questions); err != nil {
			return nil, err
		}
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}

	now := s.clock.now()
	updated, err := s.store.UpdateSurvey(ctx, id, patch, now)
	if err != nil {
		return nil, fault.Storage("update survey", err)
	}

	if questions != nil {
		if err := s.store.ReplaceQuestions(ctx, id, buildQuestions(id, questions, now)); err != nil {
			return nil, fault.Storage("replace questions", err)
		}
	}

	return updated, nil
}

// DeleteSurvey removes the survey together with its questions, responses and answers.
func (s *SurveyService) DeleteSurvey(ctx context.Context, id string) error {
	return fault.Storage("delete survey", s.store.DeleteSurvey(ctx, id))
}

// GetSurvey returns the survey with its questions ordered by order index.
func (s *SurveyService) GetSurvey(ctx context.Context, id string) (*models.SurveyDefinition, error) {
	survey, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, fault.Storage("get survey", err)
	}
	questions, err := s.store.ListQuestions(ctx, id)
	if err != nil {
		return nil, fault.Storage("list questions", err)
	}
	survey.Questions = questions
	if survey.Questions == nil {
		survey.Questions = []models.SurveyQuestion{}
	}
	return survey, nil
}

// ListSurveys returns survey headers, newest first, optionally filtered by status.
func (s *SurveyService) ListSurveys(ctx context.Context, status *models.SurveyStatus) ([]models.SurveyDefinition, error) {
	if status != nil && !status.Valid() {
		return nil, fault.Invalidf("unknown status %q", *status)
	}
	surveys, err := s.store.ListSurveys(ctx, status)
	if err != nil {
		return nil, fault.Storage("list surveys", err)
	}
	if surveys == nil {
		surveys = []models.SurveyDefinition{}
	}
	return surveys, nil
}

func validateHeader(title string, status models.SurveyStatus, maxResponses *int) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fault.Invalidf("title is required")
	}
	if len(title) > maxTitleLength {
		return fault.Invalidf("title must be at most %d characters long", maxTitleLength)
	}
	if !status.Valid() {
		return fault.Invalidf("unknown status %q", status)
	}
	if maxResponses != nil && *maxResponses < 1 {
		return fault.Invalidf("max_responses must be positive")
	}
	return nil
}

func validateQuestions(questions []models.QuestionInput) error {
	for i, q := range questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			return fault.Invalidf("question %d: question_text is required", i+1)
		}
		if !q.QuestionType.Valid() {
			return fault.Invalidf("question %d: unknown question_type %q", i+1, q.QuestionType)
		}
		if q.QuestionType.IsChoice() && len(q.Options) == 0 {
			return fault.Invalidf("question %d: %s requires options", i+1, q.QuestionType)
		}
	}
	return nil
}

func buildQuestions(surveyID string, inputs []models.QuestionInput, now time.Time) []models.SurveyQuestion {
	questions := make([]models.SurveyQuestion, 0, len(inputs))
	for i, in := range inputs {
		options := in.Options
		if options == nil {
			options = []string{}
		}
		questions = append(questions, models.SurveyQuestion{
			ID:           uuid.New().String(),
			SurveyID:     surveyID,
			QuestionText: strings.TrimSpace(in.QuestionText),
			QuestionType: in.QuestionType,
			Options:      options,
			IsRequired:   in.IsRequired,
			OrderIndex:   in.OrderIndex,
			Position:     i,
			CreatedAt:    now,
		})
	}
	return questions
}
