package models

// SurveyStatistics is computed on demand from all persisted answers of a survey.
type SurveyStatistics struct {
	SurveyID       string               `json:"survey_id"`
	TotalResponses int                  `json:"total_responses"`
	Questions      []QuestionStatistics `json:"questions"`
}

type QuestionStatistics struct {
	QuestionID   string       `json:"question_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	TotalAnswers int          `json:"total_answers"`
	Summary      Summary      `json:"summary"`
}

// Summary is the type-specific payload of a QuestionStatistics:
// one of *ChoiceSummary, *RatingSummary or *TextSummary.
type Summary interface {
	summary()
}

type ChoiceSummary struct {
	OptionCounts map[string]int `json:"option_counts"`
}

type RatingSummary struct {
	Average float64 `json:"average"`
	// Distribution is keyed by the exact numeric value, formatted without trailing zeros.
	Distribution map[string]int `json:"distribution"`
}

type TextSummary struct {
	Responses []string `json:"responses"`
}

func (*ChoiceSummary) summary() {}
func (*RatingSummary) summary() {}
func (*TextSummary) summary()   {}
