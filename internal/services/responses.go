package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/utils"
	"github.com/google/uuid"
)

// ResponseService collects respondent submissions and lists them for operators.
type ResponseService struct {
	store SurveyStore
	clock Clock

	// respondentSecret keys the fingerprints stored for anonymous surveys.
	respondentSecret []byte
}

func NewResponseService(store SurveyStore, clock Clock, respondentSecret []byte) *ResponseService {
	return &ResponseService{store: store, clock: clock, respondentSecret: respondentSecret}
}

// SubmitResponse validates answers against the survey and persists one response
// with its answers. Checks run in order: the survey must be active, a known
// respondent may not answer a single-response survey twice, the response limit
// must not be reached, and the answers must fit the survey's questions.
func (s *ResponseService) SubmitResponse(ctx context.Context, surveyID string, answers []models.AnswerInput, respondentID *string, prov models.Provenance) (*models.SurveyResponse, error) {
	survey, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, fault.Storage("get survey", err)
	}
	if survey.Status != models.SurveyStatusActive {
		return nil, fault.ErrSurveyNotOpen
	}

	if respondentID != nil && strings.TrimSpace(*respondentID) == "" {
		respondentID = nil
	}

	var respondentKey string
	if respondentID != nil && !survey.AllowMultipleResponses {
		respondentKey = s.respondentKey(survey, *respondentID)
		exists, err := s.store.HasRespondentKey(ctx, survey.ID, respondentKey)
		if err != nil {
			return nil, fault.Storage("check respondent", err)
		}
		if exists {
			return nil, fault.ErrDuplicateResponse
		}
	}

	// The cap is checked before the insert, so concurrent submits may overshoot it.
	if survey.MaxResponses != nil {
		count, err := s.store.CountResponses(ctx, survey.ID)
		if err != nil {
			return nil, fault.Storage("count responses", err)
		}
		if count >= *survey.MaxResponses {
			return nil, fault.ErrSurveyFull
		}
	}

	if len(answers) == 0 {
		return nil, fault.ErrNoAnswers
	}
	questions, err := s.store.ListQuestions(ctx, survey.ID)
	if err != nil {
		return nil, fault.Storage("list questions", err)
	}
	if len(questions) == 0 {
		return nil, fault.Invalidf("survey has no questions to answer")
	}

	response := &models.SurveyResponse{
		ID:            uuid.New().String(),
		SurveyID:      survey.ID,
		RespondentKey: respondentKey,
		IPAddress:     prov.IPAddress,
		UserAgent:     prov.UserAgent,
		SubmittedAt:   s.clock.now(),
		IsComplete:    true,
	}
	if respondentID != nil && !survey.IsAnonymous {
		id := *respondentID
		response.RespondentID = &id
	}

	rows, err := buildAnswers(response.ID, questions, answers)
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertResponse(ctx, response); err != nil {
		if errors.Is(err, fault.ErrUniqueViolation) {
			return nil, fault.ErrDuplicateResponse
		}
		return nil, fault.Storage("insert response", err)
	}
	if err := s.store.InsertAnswers(ctx, rows); err != nil {
		if delErr := s.store.DeleteResponse(ctx, response.ID); delErr != nil {
			logger.Errorf("responses.submit: rollback of response %s failed: %v", response.ID, delErr)
			return nil, fault.Storage("insert answers", errors.Join(err, delErr))
		}
		return nil, fault.Storage("insert answers", err)
	}

	return response, nil
}

// ListResponses returns every response of a survey, newest first, with answers
// joined to their question text and type.
func (s *ResponseService) ListResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	if _, err := s.store.GetSurvey(ctx, surveyID); err != nil {
		return nil, fault.Storage("get survey", err)
	}

	responses, err := s.store.ListResponses(ctx, surveyID)
	if err != nil {
		return nil, fault.Storage("list responses", err)
	}
	if len(responses) == 0 {
		return []models.SurveyResponse{}, nil
	}

	questions, err := s.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, fault.Storage("list questions", err)
	}
	byID := make(map[string]models.SurveyQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ids := make([]string, len(responses))
	index := make(map[string]int, len(responses))
	for i, r := range responses {
		ids[i] = r.ID
		index[r.ID] = i
		responses[i].Answers = []models.AnswerDetail{}
	}

	answers, err := s.store.ListAnswersByResponses(ctx, ids)
	if err != nil {
		return nil, fault.Storage("list answers", err)
	}
	for _, a := range answers {
		i, ok := index[a.ResponseID]
		if !ok {
			continue
		}
		detail := models.AnswerDetail{SurveyAnswer: a}
		if q, ok := byID[a.QuestionID]; ok {
			detail.QuestionText = q.QuestionText
			detail.QuestionType = q.QuestionType
		}
		responses[i].Answers = append(responses[i].Answers, detail)
	}

	return responses, nil
}

func (s *ResponseService) respondentKey(survey *models.SurveyDefinition, respondentID string) string {
	if survey.IsAnonymous {
		return utils.Fingerprint(s.respondentSecret, survey.ID, respondentID)
	}
	return respondentID
}

// buildAnswers checks every answer against the survey's questions and
// normalizes it into the value slot its question type uses.
func buildAnswers(responseID string, questions []models.SurveyQuestion, inputs []models.AnswerInput) ([]models.SurveyAnswer, error) {
	byID := make(map[string]models.SurveyQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	seen := make(map[string]bool, len(inputs))
	rows := make([]models.SurveyAnswer, 0, len(inputs))
	for _, in := range inputs {
		q, ok := byID[in.QuestionID]
		if !ok {
			return nil, fault.Invalidf("question %q does not belong to this survey", in.QuestionID)
		}
		if seen[q.ID] {
			return nil, fault.Invalidf("question %q answered more than once", q.ID)
		}
		seen[q.ID] = true

		answer, err := normalizeAnswer(q, in)
		if err != nil {
			return nil, err
		}
		answer.ID = uuid.New().String()
		answer.ResponseID = responseID
		rows = append(rows, answer)
	}

	for _, q := range questions {
		if q.IsRequired && !seen[q.ID] {
			return nil, fault.Invalidf("question %q is required", q.QuestionText)
		}
	}

	return rows, nil
}

func normalizeAnswer(q models.SurveyQuestion, in models.AnswerInput) (models.SurveyAnswer, error) {
	answer := models.SurveyAnswer{QuestionID: q.ID}
	text := strings.TrimSpace(in.AnswerText)

	switch q.QuestionType {
	case models.QuestionSingleChoice:
		choice := text
		if choice == "" && len(in.SelectedOptions) == 1 {
			choice = strings.TrimSpace(in.SelectedOptions[0])
		}
		if len(in.SelectedOptions) > 1 {
			return answer, fault.Invalidf("question %q accepts a single option", q.QuestionText)
		}
		if choice == "" {
			return answer, fault.Invalidf("question %q: no option selected", q.QuestionText)
		}
		if !slices.Contains(q.Options, choice) {
			return answer, fault.Invalidf("question %q: invalid option %q", q.QuestionText, choice)
		}
		answer.AnswerText = choice

	case models.QuestionMultipleChoice:
		selected := make([]string, 0, len(in.SelectedOptions))
		for _, opt := range in.SelectedOptions {
			if opt = strings.TrimSpace(opt); opt != "" {
				selected = append(selected, opt)
			}
		}
		if len(selected) == 0 && text != "" {
			selected = append(selected, text)
		}
		if len(selected) == 0 {
			return answer, fault.Invalidf("question %q: no option selected", q.QuestionText)
		}
		for i, opt := range selected {
			if !slices.Contains(q.Options, opt) {
				return answer, fault.Invalidf("question %q: invalid option %q", q.QuestionText, opt)
			}
			if slices.Contains(selected[:i], opt) {
				return answer, fault.Invalidf("question %q: option %q selected more than once", q.QuestionText, opt)
			}
		}
		answer.SelectedOptions = selected

	case models.QuestionRating, models.QuestionNumber:
		value := in.AnswerNumber
		if value == nil && text != "" {
			parsed, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return answer, fault.Invalidf("question %q expects a number", q.QuestionText)
			}
			value = &parsed
		}
		if value == nil {
			return answer, fault.Invalidf("question %q: no value given", q.QuestionText)
		}
		v := *value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return answer, fault.Invalidf("question %q expects a finite number", q.QuestionText)
		}
		answer.AnswerNumber = &v
		if q.QuestionType == models.QuestionNumber {
			answer.AnswerText = in.AnswerText
		}

	default:
		if text == "" {
			return answer, fault.Invalidf("question %q: answer is empty", q.QuestionText)
		}
		answer.AnswerText = in.AnswerText
	}

	return answer, nil
}
