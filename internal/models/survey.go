package models

import (
	"time"
)

// SurveyStatus is the lifecycle state of a survey. Only active surveys accept responses.
type SurveyStatus string

const (
	SurveyStatusDraft    SurveyStatus = "draft"
	SurveyStatusActive   SurveyStatus = "active"
	SurveyStatusClosed   SurveyStatus = "closed"
	SurveyStatusArchived SurveyStatus = "archived"
)

func (s SurveyStatus) Valid() bool {
	switch s {
	case SurveyStatusDraft, SurveyStatusActive, SurveyStatusClosed, SurveyStatusArchived:
		return true
	}
	return false
}

// QuestionType decides which value slot an answer uses and how it is summarized.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionText           QuestionType = "text"
	QuestionTextarea       QuestionType = "textarea"
	QuestionRating         QuestionType = "rating"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionNumber         QuestionType = "number"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionText, QuestionTextarea,
		QuestionRating, QuestionYesNo, QuestionNumber:
		return true
	}
	return false
}

// IsChoice reports whether answers select from the question's options.
func (t QuestionType) IsChoice() bool {
	return t == QuestionSingleChoice || t == QuestionMultipleChoice
}

type SurveyDefinition struct {
	ID          string       `db:"id" bson:"_id" json:"id"`
	Title       string       `db:"title" bson:"title" json:"title"`
	Description string       `db:"description" bson:"description" json:"description"`
	Status      SurveyStatus `db:"status" bson:"status" json:"status"`

	// Advisory only; collection is gated by Status.
	StartDate *time.Time `db:"start_date" bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" bson:"end_date,omitempty" json:"end_date,omitempty"`

	IsAnonymous            bool `db:"is_anonymous" bson:"is_anonymous" json:"is_anonymous"`
	AllowMultipleResponses bool `db:"allow_multiple_responses" bson:"allow_multiple_responses" json:"allow_multiple_responses"`
	MaxResponses           *int `db:"max_responses" bson:"max_responses,omitempty" json:"max_responses,omitempty"`

	CreatedAt time.Time `db:"created_at" bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" bson:"updated_at" json:"updated_at"`

	Questions []SurveyQuestion `db:"-" bson:"-" json:"questions,omitempty"`
}

type SurveyQuestion struct {
	ID           string       `db:"id" bson:"_id" json:"id"`
	SurveyID     string       `db:"survey_id" bson:"survey_id" json:"survey_id"`
	QuestionText string       `db:"question_text" bson:"question_text" json:"question_text"`
	QuestionType QuestionType `db:"question_type" bson:"question_type" json:"question_type"`
	Options      []string     `db:"options" bson:"options" json:"options"`
	IsRequired   bool         `db:"is_required" bson:"is_required" json:"is_required"`
	OrderIndex   int          `db:"order_index" bson:"order_index" json:"order_index"`

	// Position is the question's index in the list it was inserted with.
	// It breaks ties between equal OrderIndex values.
	Position  int       `db:"position" bson:"position" json:"-"`
	CreatedAt time.Time `db:"created_at" bson:"created_at" json:"created_at"`
}

type SurveyResponse struct {
	ID           string  `db:"id" bson:"_id" json:"id"`
	SurveyID     string  `db:"survey_id" bson:"survey_id" json:"survey_id"`
	RespondentID *string `db:"respondent_id" bson:"respondent_id,omitempty" json:"respondent_id,omitempty"`

	// RespondentKey is set only for single-response surveys with a known respondent;
	// stores keep (SurveyID, RespondentKey) unique.
	RespondentKey string `db:"respondent_key" bson:"respondent_key,omitempty" json:"-"`

	// Provenance (advisory, audit only)
	IPAddress string `db:"ip_address" bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent string `db:"user_agent" bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	SubmittedAt time.Time `db:"submitted_at" bson:"submitted_at" json:"submitted_at"`
	IsComplete  bool      `db:"is_complete" bson:"is_complete" json:"is_complete"`

	Answers []AnswerDetail `db:"-" bson:"-" json:"answers,omitempty"`
}

// SurveyAnswer holds one question's worth of data within a response.
// Exactly one value slot is populated, depending on the question type.
type SurveyAnswer struct {
	ID              string   `db:"id" bson:"_id" json:"id"`
	ResponseID      string   `db:"response_id" bson:"response_id" json:"response_id"`
	QuestionID      string   `db:"question_id" bson:"question_id" json:"question_id"`
	AnswerText      string   `db:"answer_text" bson:"answer_text,omitempty" json:"answer_text,omitempty"`
	AnswerNumber    *float64 `db:"answer_number" bson:"answer_number,omitempty" json:"answer_number,omitempty"`
	SelectedOptions []string `db:"selected_options" bson:"selected_options,omitempty" json:"selected_options,omitempty"`
}

// AnswerDetail is an answer joined to its question for display.
// QuestionText and QuestionType are empty when the question has since been replaced.
type AnswerDetail struct {
	SurveyAnswer
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
}

// Provenance is request metadata stored alongside a response.
type Provenance struct {
	IPAddress string
	UserAgent string
}
