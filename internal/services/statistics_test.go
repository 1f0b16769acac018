package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/AnshRaj112/counseling-portal-backend/internal/database"
	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		question  models.SurveyQuestion
		answers   []models.SurveyAnswer
		want      models.Summary
		wantTotal int
	}{
		{
			name:     "single choice seeds declared options",
			question: models.SurveyQuestion{QuestionType: models.QuestionSingleChoice, Options: []string{"Red", "Blue", "Green"}},
			answers: []models.SurveyAnswer{
				{AnswerText: "Red"}, {AnswerText: "Red"}, {AnswerText: "Blue"},
			},
			want:      &models.ChoiceSummary{OptionCounts: map[string]int{"Red": 2, "Blue": 1, "Green": 0}},
			wantTotal: 3,
		},
		{
			name:     "multiple choice flattens selections",
			question: models.SurveyQuestion{QuestionType: models.QuestionMultipleChoice, Options: []string{"A", "B", "C"}},
			answers: []models.SurveyAnswer{
				{SelectedOptions: []string{"A", "B"}}, {SelectedOptions: []string{"A"}},
			},
			want:      &models.ChoiceSummary{OptionCounts: map[string]int{"A": 2, "B": 1, "C": 0}},
			wantTotal: 2,
		},
		{
			name:     "rating average and distribution",
			question: models.SurveyQuestion{QuestionType: models.QuestionRating},
			answers: []models.SurveyAnswer{
				{AnswerNumber: floatPtr(4)}, {AnswerNumber: floatPtr(5)}, {AnswerNumber: floatPtr(3)},
			},
			want:      &models.RatingSummary{Average: 4, Distribution: map[string]int{"3": 1, "4": 1, "5": 1}},
			wantTotal: 3,
		},
		{
			name:      "rating without answers",
			question:  models.SurveyQuestion{QuestionType: models.QuestionRating},
			want:      &models.RatingSummary{Average: 0, Distribution: map[string]int{}},
			wantTotal: 0,
		},
		{
			name:      "rating keeps fractional keys",
			question:  models.SurveyQuestion{QuestionType: models.QuestionRating},
			answers:   []models.SurveyAnswer{{AnswerNumber: floatPtr(2.5)}, {AnswerNumber: floatPtr(2.5)}, {}},
			want:      &models.RatingSummary{Average: 2.5, Distribution: map[string]int{"2.5": 2}},
			wantTotal: 2,
		},
		{
			name:      "text lists raw answers",
			question:  models.SurveyQuestion{QuestionType: models.QuestionTextarea},
			answers:   []models.SurveyAnswer{{AnswerText: "calm"}, {AnswerText: "tired"}},
			want:      &models.TextSummary{Responses: []string{"calm", "tired"}},
			wantTotal: 2,
		},
		{
			name:      "yes no falls back to text",
			question:  models.SurveyQuestion{QuestionType: models.QuestionYesNo},
			answers:   []models.SurveyAnswer{{AnswerText: "yes"}},
			want:      &models.TextSummary{Responses: []string{"yes"}},
			wantTotal: 1,
		},
		{
			name:      "number falls back to text",
			question:  models.SurveyQuestion{QuestionType: models.QuestionNumber},
			answers:   []models.SurveyAnswer{{AnswerNumber: floatPtr(42)}, {AnswerText: "7", AnswerNumber: floatPtr(7)}},
			want:      &models.TextSummary{Responses: []string{"42", "7"}},
			wantTotal: 2,
		},
		{
			name:      "text without answers",
			question:  models.SurveyQuestion{QuestionType: models.QuestionText},
			want:      &models.TextSummary{Responses: []string{}},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := Summarize(tt.question, tt.answers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Summarize() = %#v, want %#v", got, tt.want)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestGetStatistics(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine()
	survey := activeSurvey(t, e, models.SurveyInput{AllowMultipleResponses: true},
		choiceQuestion("Favorite color", "Red", "Blue"),
		models.QuestionInput{QuestionText: "Mood", QuestionType: models.QuestionRating, OrderIndex: 1},
		models.QuestionInput{QuestionText: "Comments", QuestionType: models.QuestionText, OrderIndex: 2},
	)
	color, mood := survey.Questions[0].ID, survey.Questions[1].ID

	for _, c := range []string{"Red", "Red", "Blue"} {
		_, err := e.responses.SubmitResponse(ctx, survey.ID, []models.AnswerInput{
			{QuestionID: color, AnswerText: c},
			{QuestionID: mood, AnswerNumber: floatPtr(4)},
		}, nil, models.Provenance{})
		if err != nil {
			t.Fatalf("SubmitResponse: %v", err)
		}
	}

	stats, err := e.statistics.GetStatistics(ctx, survey.ID)
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.SurveyID != survey.ID || stats.TotalResponses != 3 {
		t.Fatalf("unexpected header: %+v", stats)
	}
	if len(stats.Questions) != 3 {
		t.Fatalf("got %d question stats", len(stats.Questions))
	}

	colorStats := stats.Questions[0]
	if colorStats.QuestionText != "Favorite color" || colorStats.TotalAnswers != 3 {
		t.Errorf("unexpected color stats: %+v", colorStats)
	}
	choice, ok := colorStats.Summary.(*models.ChoiceSummary)
	if !ok {
		t.Fatalf("color summary is %T", colorStats.Summary)
	}
	if !reflect.DeepEqual(choice.OptionCounts, map[string]int{"Red": 2, "Blue": 1}) {
		t.Errorf("option counts = %v", choice.OptionCounts)
	}

	rating, ok := stats.Questions[1].Summary.(*models.RatingSummary)
	if !ok || rating.Average != 4 || rating.Distribution["4"] != 3 {
		t.Errorf("unexpected rating summary: %#v", stats.Questions[1].Summary)
	}

	comments := stats.Questions[2]
	text, ok := comments.Summary.(*models.TextSummary)
	if !ok || comments.TotalAnswers != 0 || len(text.Responses) != 0 {
		t.Errorf("unanswered question should report zero: %+v", comments)
	}
}

func TestGetStatistics_NoResponses(t *testing.T) {
	e := newMemoryEngine()
	survey := activeSurvey(t, e, models.SurveyInput{}, choiceQuestion("Color", "Red", "Blue"))

	stats, err := e.statistics.GetStatistics(context.Background(), survey.ID)
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.TotalResponses != 0 || len(stats.Questions) != 1 || stats.Questions[0].TotalAnswers != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	choice := stats.Questions[0].Summary.(*models.ChoiceSummary)
	if !reflect.DeepEqual(choice.OptionCounts, map[string]int{"Red": 0, "Blue": 0}) {
		t.Errorf("option counts = %v", choice.OptionCounts)
	}
}

func TestGetStatistics_IgnoresReplacedQuestions(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEngine()
	survey := activeSurvey(t, e, models.SurveyInput{}, choiceQuestion("Color", "Red"))

	if _, err := e.responses.SubmitResponse(ctx, survey.ID, colorAnswer(survey, "Red"), nil, models.Provenance{}); err != nil {
		t.Fatalf("SubmitResponse: %v", err)
	}
	if _, err := e.surveys.UpdateSurvey(ctx, survey.ID, models.SurveyPatch{}, []models.QuestionInput{choiceQuestion("Shape", "Round")}); err != nil {
		t.Fatalf("UpdateSurvey: %v", err)
	}

	stats, err := e.statistics.GetStatistics(ctx, survey.ID)
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.TotalResponses != 1 {
		t.Errorf("TotalResponses = %d, want 1", stats.TotalResponses)
	}
	if len(stats.Questions) != 1 || stats.Questions[0].QuestionText != "Shape" || stats.Questions[0].TotalAnswers != 0 {
		t.Errorf("unexpected question stats: %+v", stats.Questions)
	}
}

func TestGetStatistics_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing survey", func(t *testing.T) {
		e := newMemoryEngine()
		_, err := e.statistics.GetStatistics(ctx, "00000000-0000-0000-0000-000000000000")
		if !fault.Is(err, fault.NotFound) {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		fs := &failingStore{SurveyStore: database.NewMemorySurveyStore()}
		e := newEngine(fs)
		survey := activeSurvey(t, e, models.SurveyInput{}, choiceQuestion("Color", "Red"))

		fs.countResponses = errInjected
		_, err := e.statistics.GetStatistics(ctx, survey.ID)
		if !fault.Is(err, fault.StorageFailure) || !errors.Is(err, errInjected) {
			t.Fatalf("expected wrapped StorageFailure, got %v", err)
		}
	})
}
