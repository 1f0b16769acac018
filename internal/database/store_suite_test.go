package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/internal/services"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
	"github.com/google/uuid"
)

var (
	_ services.SurveyStore = (*MemorySurveyStore)(nil)
	_ services.SurveyStore = (*PostgresSurveyStore)(nil)
	_ services.SurveyStore = (*MongoSurveyStore)(nil)
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newSurvey(title string, status models.SurveyStatus, createdAt time.Time) *models.SurveyDefinition {
	return &models.SurveyDefinition{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func newQuestion(surveyID, text string, orderIndex, position int) models.SurveyQuestion {
	return models.SurveyQuestion{
		ID:           uuid.New().String(),
		SurveyID:     surveyID,
		QuestionText: text,
		QuestionType: models.QuestionSingleChoice,
		Options:      []string{"A", "B"},
		OrderIndex:   orderIndex,
		Position:     position,
		CreatedAt:    baseTime,
	}
}

func newResponse(surveyID, key string, at time.Time) *models.SurveyResponse {
	return &models.SurveyResponse{
		ID:            uuid.New().String(),
		SurveyID:      surveyID,
		RespondentKey: key,
		SubmittedAt:   at,
		IsComplete:    true,
	}
}

// runStoreSuite checks the behavior every SurveyStore backend must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) services.SurveyStore) {
	ctx := context.Background()

	t.Run("get missing survey", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetSurvey(ctx, uuid.New().String())
		if !errors.Is(err, fault.ErrSurveyNotFound) {
			t.Fatalf("expected ErrSurveyNotFound, got %v", err)
		}
	})

	t.Run("list newest first with status filter", func(t *testing.T) {
		store := newStore(t)
		older := newSurvey("older", models.SurveyStatusActive, baseTime)
		newer := newSurvey("newer", models.SurveyStatusActive, baseTime.Add(time.Hour))
		draft := newSurvey("draft", models.SurveyStatusDraft, baseTime.Add(2*time.Hour))
		for _, s := range []*models.SurveyDefinition{older, newer, draft} {
			if err := store.InsertSurvey(ctx, s); err != nil {
				t.Fatalf("InsertSurvey: %v", err)
			}
		}

		all, err := store.ListSurveys(ctx, nil)
		if err != nil {
			t.Fatalf("ListSurveys: %v", err)
		}
		if len(all) != 3 || all[0].ID != draft.ID || all[2].ID != older.ID {
			t.Fatalf("unexpected order: %+v", all)
		}

		active := models.SurveyStatusActive
		filtered, err := store.ListSurveys(ctx, &active)
		if err != nil {
			t.Fatalf("ListSurveys(active): %v", err)
		}
		if len(filtered) != 2 || filtered[0].ID != newer.ID {
			t.Fatalf("unexpected filtered list: %+v", filtered)
		}
	})

	t.Run("update applies patch", func(t *testing.T) {
		store := newStore(t)
		s := newSurvey("before", models.SurveyStatusDraft, baseTime)
		if err := store.InsertSurvey(ctx, s); err != nil {
			t.Fatalf("InsertSurvey: %v", err)
		}

		title := "after"
		status := models.SurveyStatusActive
		limit := 5
		updated, err := store.UpdateSurvey(ctx, s.ID, models.SurveyPatch{Title: &title, Status: &status, MaxResponses: &limit}, baseTime.Add(time.Minute))
		if err != nil {
			t.Fatalf("UpdateSurvey: %v", err)
		}
		if updated.Title != "after" || updated.Status != status || updated.MaxResponses == nil || *updated.MaxResponses != 5 {
			t.Errorf("unexpected update result: %+v", updated)
		}
		if !updated.UpdatedAt.Equal(baseTime.Add(time.Minute)) {
			t.Errorf("UpdatedAt = %v", updated.UpdatedAt)
		}

		cleared, err := store.UpdateSurvey(ctx, s.ID, models.SurveyPatch{ClearMaxResponses: true}, baseTime.Add(2*time.Minute))
		if err != nil {
			t.Fatalf("UpdateSurvey clear: %v", err)
		}
		if cleared.MaxResponses != nil || cleared.Title != "after" {
			t.Errorf("max_responses not cleared: %+v", cleared)
		}
		if got, _ := store.GetSurvey(ctx, s.ID); got == nil || got.MaxResponses != nil {
			t.Errorf("stored max_responses not cleared: %+v", got)
		}

		_, err = store.UpdateSurvey(ctx, uuid.New().String(), models.SurveyPatch{Title: &title}, baseTime)
		if !errors.Is(err, fault.ErrSurveyNotFound) {
			t.Errorf("expected ErrSurveyNotFound, got %v", err)
		}
	})

	t.Run("questions ordered by order index then position", func(t *testing.T) {
		store := newStore(t)
		s := newSurvey("q", models.SurveyStatusDraft, baseTime)
		if err := store.InsertSurvey(ctx, s); err != nil {
			t.Fatalf("InsertSurvey: %v", err)
		}
		qs := []models.SurveyQuestion{
			newQuestion(s.ID, "third", 2, 0),
			newQuestion(s.ID, "first", 1, 1),
			newQuestion(s.ID, "second", 1, 2),
		}
		if err := store.InsertQuestions(ctx, qs); err != nil {
			t.Fatalf("InsertQuestions: %v", err)
		}

		got, err := store.ListQuestions(ctx, s.ID)
		if err != nil {
			t.Fatalf("ListQuestions: %v", err)
		}
		want := []string{"first", "second", "third"}
		if len(got) != len(want) {
			t.Fatalf("got %d questions", len(got))
		}
		for i, q := range got {
			if q.QuestionText != want[i] {
				t.Errorf("question %d = %q, want %q", i, q.QuestionText, want[i])
			}
		}

		if err := store.ReplaceQuestions(ctx, s.ID, []models.SurveyQuestion{newQuestion(s.ID, "only", 0, 0)}); err != nil {
			t.Fatalf("ReplaceQuestions: %v", err)
		}
		got, err = store.ListQuestions(ctx, s.ID)
		if err != nil {
			t.Fatalf("ListQuestions: %v", err)
		}
		if len(got) != 1 || got[0].QuestionText != "only" {
			t.Errorf("unexpected questions after replace: %+v", got)
		}
	})

	t.Run("respondent key is unique per survey", func(t *testing.T) {
		store := newStore(t)
		s := newSurvey("r", models.SurveyStatusActive, baseTime)
		other := newSurvey("other", models.SurveyStatusActive, baseTime)
		for _, sv := range []*models.SurveyDefinition{s, other} {
			if err := store.InsertSurvey(ctx, sv); err != nil {
				t.Fatalf("InsertSurvey: %v", err)
			}
		}

		if err := store.InsertResponse(ctx, newResponse(s.ID, "key-1", baseTime)); err != nil {
			t.Fatalf("InsertResponse: %v", err)
		}
		err := store.InsertResponse(ctx, newResponse(s.ID, "key-1", baseTime))
		if !errors.Is(err, fault.ErrUniqueViolation) {
			t.Fatalf("expected ErrUniqueViolation, got %v", err)
		}
		if err := store.InsertResponse(ctx, newResponse(other.ID, "key-1", baseTime)); err != nil {
			t.Errorf("same key on another survey: %v", err)
		}
		for i := 0; i < 2; i++ {
			if err := store.InsertResponse(ctx, newResponse(s.ID, "", baseTime)); err != nil {
				t.Errorf("unkeyed response %d: %v", i, err)
			}
		}

		has, err := store.HasRespondentKey(ctx, s.ID, "key-1")
		if err != nil || !has {
			t.Errorf("HasRespondentKey = %v, %v", has, err)
		}
		n, err := store.CountResponses(ctx, s.ID)
		if err != nil || n != 3 {
			t.Errorf("CountResponses = %d, %v", n, err)
		}
	})

	t.Run("answers and cascade delete", func(t *testing.T) {
		store := newStore(t)
		s := newSurvey("a", models.SurveyStatusActive, baseTime)
		if err := store.InsertSurvey(ctx, s); err != nil {
			t.Fatalf("InsertSurvey: %v", err)
		}
		q := newQuestion(s.ID, "pick", 0, 0)
		if err := store.InsertQuestions(ctx, []models.SurveyQuestion{q}); err != nil {
			t.Fatalf("InsertQuestions: %v", err)
		}

		first := newResponse(s.ID, "", baseTime)
		second := newResponse(s.ID, "k", baseTime.Add(time.Minute))
		for _, r := range []*models.SurveyResponse{first, second} {
			if err := store.InsertResponse(ctx, r); err != nil {
				t.Fatalf("InsertResponse: %v", err)
			}
			err := store.InsertAnswers(ctx, []models.SurveyAnswer{{
				ID: uuid.New().String(), ResponseID: r.ID, QuestionID: q.ID, AnswerText: "A",
			}})
			if err != nil {
				t.Fatalf("InsertAnswers: %v", err)
			}
		}

		responses, err := store.ListResponses(ctx, s.ID)
		if err != nil {
			t.Fatalf("ListResponses: %v", err)
		}
		if len(responses) != 2 || responses[0].ID != second.ID {
			t.Fatalf("expected newest response first, got %+v", responses)
		}

		byQuestion, err := store.ListAnswersByQuestion(ctx, q.ID)
		if err != nil || len(byQuestion) != 2 {
			t.Fatalf("ListAnswersByQuestion = %d, %v", len(byQuestion), err)
		}
		byResponse, err := store.ListAnswersByResponses(ctx, []string{first.ID})
		if err != nil || len(byResponse) != 1 {
			t.Fatalf("ListAnswersByResponses = %d, %v", len(byResponse), err)
		}

		if err := store.DeleteResponse(ctx, first.ID); err != nil {
			t.Fatalf("DeleteResponse: %v", err)
		}
		if n, _ := store.CountResponses(ctx, s.ID); n != 1 {
			t.Errorf("CountResponses after DeleteResponse = %d", n)
		}

		if err := store.DeleteSurvey(ctx, s.ID); err != nil {
			t.Fatalf("DeleteSurvey: %v", err)
		}
		if _, err := store.GetSurvey(ctx, s.ID); !errors.Is(err, fault.ErrSurveyNotFound) {
			t.Errorf("survey still present: %v", err)
		}
		if n, _ := store.CountResponses(ctx, s.ID); n != 0 {
			t.Errorf("responses survived delete: %d", n)
		}
		if left, _ := store.ListAnswersByQuestion(ctx, q.ID); len(left) != 0 {
			t.Errorf("answers survived delete: %d", len(left))
		}
		if qs, _ := store.ListQuestions(ctx, s.ID); len(qs) != 0 {
			t.Errorf("questions survived delete: %d", len(qs))
		}
		if err := store.DeleteSurvey(ctx, s.ID); !errors.Is(err, fault.ErrSurveyNotFound) {
			t.Errorf("second delete: expected ErrSurveyNotFound, got %v", err)
		}
	})
}
