package models

import "time"

// SurveyInput is the header supplied when creating a survey.
type SurveyInput struct {
	Title                  string       `json:"title"`
	Description            string       `json:"description"`
	Status                 SurveyStatus `json:"status"`
	StartDate              *time.Time   `json:"start_date,omitempty"`
	EndDate                *time.Time   `json:"end_date,omitempty"`
	IsAnonymous            bool         `json:"is_anonymous"`
	AllowMultipleResponses bool         `json:"allow_multiple_responses"`
	MaxResponses           *int         `json:"max_responses,omitempty"`
}

// SurveyPatch is a partial header update. Nil fields are left untouched.
// The Clear flags reset an optional field to null.
type SurveyPatch struct {
	Title                  *string       `json:"title,omitempty"`
	Description            *string       `json:"description,omitempty"`
	Status                 *SurveyStatus `json:"status,omitempty"`
	StartDate              *time.Time    `json:"start_date,omitempty"`
	EndDate                *time.Time    `json:"end_date,omitempty"`
	IsAnonymous            *bool         `json:"is_anonymous,omitempty"`
	AllowMultipleResponses *bool         `json:"allow_multiple_responses,omitempty"`
	MaxResponses           *int          `json:"max_responses,omitempty"`

	ClearStartDate    bool `json:"clear_start_date,omitempty"`
	ClearEndDate      bool `json:"clear_end_date,omitempty"`
	ClearMaxResponses bool `json:"clear_max_responses,omitempty"`
}

// Conflicts reports the first field that is both set and cleared.
func (p SurveyPatch) Conflicts() (string, bool) {
	switch {
	case p.StartDate != nil && p.ClearStartDate:
		return "start_date", true
	case p.EndDate != nil && p.ClearEndDate:
		return "end_date", true
	case p.MaxResponses != nil && p.ClearMaxResponses:
		return "max_responses", true
	}
	return "", false
}

// Apply copies the fields set in p onto s.
func (p SurveyPatch) Apply(s *SurveyDefinition) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.StartDate != nil {
		t := *p.StartDate
		s.StartDate = &t
	}
	if p.ClearStartDate {
		s.StartDate = nil
	}
	if p.EndDate != nil {
		t := *p.EndDate
		s.EndDate = &t
	}
	if p.ClearEndDate {
		s.EndDate = nil
	}
	if p.IsAnonymous != nil {
		s.IsAnonymous = *p.IsAnonymous
	}
	if p.AllowMultipleResponses != nil {
		s.AllowMultipleResponses = *p.AllowMultipleResponses
	}
	if p.MaxResponses != nil {
		n := *p.MaxResponses
		s.MaxResponses = &n
	}
	if p.ClearMaxResponses {
		s.MaxResponses = nil
	}
}

type QuestionInput struct {
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	Options      []string     `json:"options"`
	IsRequired   bool         `json:"is_required"`
	OrderIndex   int          `json:"order_index"`
}

type AnswerInput struct {
	QuestionID      string   `json:"question_id"`
	AnswerText      string   `json:"answer_text,omitempty"`
	AnswerNumber    *float64 `json:"answer_number,omitempty"`
	SelectedOptions []string `json:"selected_options,omitempty"`
}
