package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
)

// reducer turns every answer given to one question into its summary and the
// number of answers the summary was built from.
type reducer func(q models.SurveyQuestion, answers []models.SurveyAnswer) (models.Summary, int)

var reducers = map[models.QuestionType]reducer{
	models.QuestionSingleChoice:   reduceSingleChoice,
	models.QuestionMultipleChoice: reduceMultipleChoice,
	models.QuestionRating:         reduceRating,
	// text, textarea, yes_no and number fall back to reduceText
}

// StatisticsService aggregates answers into per-question summaries. Results
// are recomputed on every call.
type StatisticsService struct {
	store SurveyStore
}

func NewStatisticsService(store SurveyStore) *StatisticsService {
	return &StatisticsService{store: store}
}

// GetStatistics reports the response count of a survey and one summary per
// live question, in question order. Answers to questions removed by an update
// are not reported.
func (s *StatisticsService) GetStatistics(ctx context.Context, surveyID string) (*models.SurveyStatistics, error) {
	if _, err := s.store.GetSurvey(ctx, surveyID); err != nil {
		return nil, fault.Storage("get survey", err)
	}

	total, err := s.store.CountResponses(ctx, surveyID)
	if err != nil {
		return nil, fault.Storage("count responses", err)
	}
	questions, err := s.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, fault.Storage("list questions", err)
	}

	stats := &models.SurveyStatistics{
		SurveyID:       surveyID,
		TotalResponses: total,
		Questions:      make([]models.QuestionStatistics, 0, len(questions)),
	}
	for _, q := range questions {
		answers, err := s.store.ListAnswersByQuestion(ctx, q.ID)
		if err != nil {
			return nil, fault.Storage("list answers", err)
		}
		summary, count := Summarize(q, answers)
		stats.Questions = append(stats.Questions, models.QuestionStatistics{
			QuestionID:   q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			TotalAnswers: count,
			Summary:      summary,
		})
	}

	return stats, nil
}

// Summarize reduces the answers of one question according to its type.
func Summarize(q models.SurveyQuestion, answers []models.SurveyAnswer) (models.Summary, int) {
	if reduce, ok := reducers[q.QuestionType]; ok {
		return reduce(q, answers)
	}
	return reduceText(q, answers)
}

func seededCounts(options []string) map[string]int {
	counts := make(map[string]int, len(options))
	for _, opt := range options {
		counts[opt] = 0
	}
	return counts
}

func reduceSingleChoice(q models.SurveyQuestion, answers []models.SurveyAnswer) (models.Summary, int) {
	counts := seededCounts(q.Options)
	total := 0
	for _, a := range answers {
		choice := a.AnswerText
		if choice == "" && len(a.SelectedOptions) > 0 {
			choice = a.SelectedOptions[0]
		}
		if choice == "" {
			continue
		}
		counts[choice]++
		total++
	}
	return &models.ChoiceSummary{OptionCounts: counts}, total
}

// Selections are flattened: an answer choosing three options adds one to each
// of the three buckets.
func reduceMultipleChoice(q models.SurveyQuestion, answers []models.SurveyAnswer) (models.Summary, int) {
	counts := seededCounts(q.Options)
	total := 0
	for _, a := range answers {
		selected := a.SelectedOptions
		if len(selected) == 0 && a.AnswerText != "" {
			selected = []string{a.AnswerText}
		}
		if len(selected) == 0 {
			continue
		}
		for _, opt := range selected {
			counts[opt]++
		}
		total++
	}
	return &models.ChoiceSummary{OptionCounts: counts}, total
}

func reduceRating(_ models.SurveyQuestion, answers []models.SurveyAnswer) (models.Summary, int) {
	distribution := make(map[string]int)
	var sum float64
	n := 0
	for _, a := range answers {
		if a.AnswerNumber == nil {
			continue
		}
		v := *a.AnswerNumber
		sum += v
		n++
		distribution[formatNumber(v)]++
	}

	average := 0.0
	if n > 0 {
		average = sum / float64(n)
	}
	return &models.RatingSummary{Average: average, Distribution: distribution}, n
}

func reduceText(_ models.SurveyQuestion, answers []models.SurveyAnswer) (models.Summary, int) {
	texts := make([]string, 0, len(answers))
	for _, a := range answers {
		v := a.AnswerText
		if v == "" && a.AnswerNumber != nil {
			v = formatNumber(*a.AnswerNumber)
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		texts = append(texts, v)
	}
	return &models.TextSummary{Responses: texts}, len(texts)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
