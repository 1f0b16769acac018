package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/internal/database"
	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
)

var errInjected = errors.New("injected failure")

var testSecret = []byte("test-respondent-secret-0123456789")

// fixedClock returns a clock that advances one second per call, so ordering by
// timestamp is deterministic.
func fixedClock() Clock {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	SurveyStore

	insertQuestions  error
	replaceQuestions error
	deleteSurvey     error
	insertAnswers    error
	deleteResponse   error
	countResponses   error
}

func (f *failingStore) InsertQuestions(ctx context.Context, qs []models.SurveyQuestion) error {
	if f.insertQuestions != nil {
		return f.insertQuestions
	}
	return f.SurveyStore.InsertQuestions(ctx, qs)
}

func (f *failingStore) ReplaceQuestions(ctx context.Context, surveyID string, qs []models.SurveyQuestion) error {
	if f.replaceQuestions != nil {
		return f.replaceQuestions
	}
	return f.SurveyStore.ReplaceQuestions(ctx, surveyID, qs)
}

func (f *failingStore) DeleteSurvey(ctx context.Context, id string) error {
	if f.deleteSurvey != nil {
		return f.deleteSurvey
	}
	return f.SurveyStore.DeleteSurvey(ctx, id)
}

func (f *failingStore) InsertAnswers(ctx context.Context, answers []models.SurveyAnswer) error {
	if f.insertAnswers != nil {
		return f.insertAnswers
	}
	return f.SurveyStore.InsertAnswers(ctx, answers)
}

func (f *failingStore) DeleteResponse(ctx context.Context, id string) error {
	if f.deleteResponse != nil {
		return f.deleteResponse
	}
	return f.SurveyStore.DeleteResponse(ctx, id)
}

func (f *failingStore) CountResponses(ctx context.Context, surveyID string) (int, error) {
	if f.countResponses != nil {
		return 0, f.countResponses
	}
	return f.SurveyStore.CountResponses(ctx, surveyID)
}

type engine struct {
	store      SurveyStore
	surveys    *SurveyService
	responses  *ResponseService
	statistics *StatisticsService
}

func newEngine(store SurveyStore) *engine {
	clock := fixedClock()
	return &engine{
		store:      store,
		surveys:    NewSurveyService(store, clock),
		responses:  NewResponseService(store, clock, testSecret),
		statistics: NewStatisticsService(store),
	}
}

func newMemoryEngine() *engine {
	return newEngine(database.NewMemorySurveyStore())
}

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }

func intPtr(n int) *int { return &n }

// activeSurvey creates an active survey with the given questions.
func activeSurvey(t *testing.T, e *engine, in models.SurveyInput, questions ...models.QuestionInput) *models.SurveyDefinition {
	t.Helper()
	in.Status = models.SurveyStatusActive
	if in.Title == "" {
		in.Title = "Wellbeing check-in"
	}
	created, err := e.surveys.CreateSurvey(context.Background(), in, questions)
	if err != nil {
		t.Fatalf("CreateSurvey: %v", err)
	}
	full, err := e.surveys.GetSurvey(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetSurvey: %v", err)
	}
	return full
}

func choiceQuestion(text string, options ...string) models.QuestionInput {
	return models.QuestionInput{QuestionText: text, QuestionType: models.QuestionSingleChoice, Options: options}
}
