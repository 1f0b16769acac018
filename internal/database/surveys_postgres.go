package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const surveyColumns = `id, title, description, status, start_date, end_date, is_anonymous,
	allow_multiple_responses, max_responses, created_at, updated_at`

// PostgresSurveyStore keeps surveys in the tables created by the embedded migrations.
type PostgresSurveyStore struct {
	db *sqlx.DB
}

func NewPostgresSurveyStore(db *sqlx.DB) *PostgresSurveyStore {
	return &PostgresSurveyStore{db: db}
}

type questionRow struct {
	ID           string         `db:"id"`
	SurveyID     string         `db:"survey_id"`
	QuestionText string         `db:"question_text"`
	QuestionType string         `db:"question_type"`
	Options      pq.StringArray `db:"options"`
	IsRequired   bool           `db:"is_required"`
	OrderIndex   int            `db:"order_index"`
	Position     int            `db:"position"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r questionRow) model() models.SurveyQuestion {
	options := []string(r.Options)
	if options == nil {
		options = []string{}
	}
	return models.SurveyQuestion{
		ID:           r.ID,
		SurveyID:     r.SurveyID,
		QuestionText: r.QuestionText,
		QuestionType: models.QuestionType(r.QuestionType),
		Options:      options,
		IsRequired:   r.IsRequired,
		OrderIndex:   r.OrderIndex,
		Position:     r.Position,
		CreatedAt:    r.CreatedAt,
	}
}

type responseRow struct {
	ID            string         `db:"id"`
	SurveyID      string         `db:"survey_id"`
	RespondentID  sql.NullString `db:"respondent_id"`
	RespondentKey sql.NullString `db:"respondent_key"`
	IPAddress     string         `db:"ip_address"`
	UserAgent     string         `db:"user_agent"`
	SubmittedAt   time.Time      `db:"submitted_at"`
	IsComplete    bool           `db:"is_complete"`
}

func (r responseRow) model() models.SurveyResponse {
	resp := models.SurveyResponse{
		ID:            r.ID,
		SurveyID:      r.SurveyID,
		RespondentKey: r.RespondentKey.String,
		IPAddress:     r.IPAddress,
		UserAgent:     r.UserAgent,
		SubmittedAt:   r.SubmittedAt,
		IsComplete:    r.IsComplete,
	}
	if r.RespondentID.Valid {
		id := r.RespondentID.String
		resp.RespondentID = &id
	}
	return resp
}

type answerRow struct {
	ID              string          `db:"id"`
	ResponseID      string          `db:"response_id"`
	QuestionID      string          `db:"question_id"`
	AnswerText      string          `db:"answer_text"`
	AnswerNumber    sql.NullFloat64 `db:"answer_number"`
	SelectedOptions pq.StringArray  `db:"selected_options"`
}

func (r answerRow) model() models.SurveyAnswer {
	a := models.SurveyAnswer{
		ID:         r.ID,
		ResponseID: r.ResponseID,
		QuestionID: r.QuestionID,
		AnswerText: r.AnswerText,
	}
	if r.AnswerNumber.Valid {
		v := r.AnswerNumber.Float64
		a.AnswerNumber = &v
	}
	if len(r.SelectedOptions) > 0 {
		a.SelectedOptions = []string(r.SelectedOptions)
	}
	return a
}

// isUniqueViolation reports a 23505 error from PostgreSQL.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PostgresSurveyStore) InsertSurvey(ctx context.Context, survey *models.SurveyDefinition) error {
	query := `INSERT INTO surveys (` + surveyColumns + `)
		VALUES (:id, :title, :description, :status, :start_date, :end_date, :is_anonymous,
			:allow_multiple_responses, :max_responses, :created_at, :updated_at)`
	_, err := s.db.NamedExecContext(ctx, query, survey)
	return err
}

func (s *PostgresSurveyStore) UpdateSurvey(ctx context.Context, id string, patch models.SurveyPatch, updatedAt time.Time) (*models.SurveyDefinition, error) {
	sets := []string{"updated_at = :updated_at"}
	params := map[string]any{"id": id, "updated_at": updatedAt}

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = :%s", column, column))
		params[column] = value
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	} else if patch.ClearStartDate {
		add("start_date", nil)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	} else if patch.ClearEndDate {
		add("end_date", nil)
	}
	if patch.IsAnonymous != nil {
		add("is_anonymous", *patch.IsAnonymous)
	}
	if patch.AllowMultipleResponses != nil {
		add("allow_multiple_responses", *patch.AllowMultipleResponses)
	}
	if patch.MaxResponses != nil {
		add("max_responses", *patch.MaxResponses)
	} else if patch.ClearMaxResponses {
		add("max_responses", nil)
	}

	query := `UPDATE surveys SET ` + strings.Join(sets, ", ") + ` WHERE id = :id RETURNING ` + surveyColumns
	query, args, err := sqlx.Named(query, params)
	if err != nil {
		return nil, err
	}

	var survey models.SurveyDefinition
	if err := s.db.GetContext(ctx, &survey, s.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrSurveyNotFound
		}
		return nil, err
	}
	return &survey, nil
}

// DeleteSurvey relies on ON DELETE CASCADE for questions, responses and answers.
func (s *PostgresSurveyStore) DeleteSurvey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fault.ErrSurveyNotFound
	}
	return nil
}

func (s *PostgresSurveyStore) GetSurvey(ctx context.Context, id string) (*models.SurveyDefinition, error) {
	var survey models.SurveyDefinition
	err := s.db.GetContext(ctx, &survey, `SELECT `+surveyColumns+` FROM surveys WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (s *PostgresSurveyStore) ListSurveys(ctx context.Context, status *models.SurveyStatus) ([]models.SurveyDefinition, error) {
	surveys := []models.SurveyDefinition{}
	var err error
	if status != nil {
		err = s.db.SelectContext(ctx, &surveys,
			`SELECT `+surveyColumns+` FROM surveys WHERE status = $1 ORDER BY created_at DESC, id`, string(*status))
	} else {
		err = s.db.SelectContext(ctx, &surveys,
			`SELECT `+surveyColumns+` FROM surveys ORDER BY created_at DESC, id`)
	}
	if err != nil {
		return nil, err
	}
	return surveys, nil
}

func (s *PostgresSurveyStore) InsertQuestions(ctx context.Context, questions []models.SurveyQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertQuestions(ctx, tx, questions); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresSurveyStore) ReplaceQuestions(ctx context.Context, surveyID string, questions []models.SurveyQuestion) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM survey_questions WHERE survey_id = $1`, surveyID); err != nil {
		return err
	}
	if err := insertQuestions(ctx, tx, questions); err != nil {
		return err
	}
	return tx.Commit()
}

func insertQuestions(ctx context.Context, tx *sqlx.Tx, questions []models.SurveyQuestion) error {
	const query = `INSERT INTO survey_questions
		(id, survey_id, question_text, question_type, options, is_required, order_index, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, q := range questions {
		_, err := tx.ExecContext(ctx, query, q.ID, q.SurveyID, q.QuestionText, string(q.QuestionType),
			pq.StringArray(q.Options), q.IsRequired, q.OrderIndex, q.Position, q.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresSurveyStore) ListQuestions(ctx context.Context, surveyID string) ([]models.SurveyQuestion, error) {
	var rows []questionRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, survey_id, question_text, question_type, options,
		is_required, order_index, position, created_at
		FROM survey_questions WHERE survey_id = $1 ORDER BY order_index, position`, surveyID)
	if err != nil {
		return nil, err
	}
	questions := make([]models.SurveyQuestion, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.model())
	}
	return questions, nil
}

func (s *PostgresSurveyStore) InsertResponse(ctx context.Context, response *models.SurveyResponse) error {
	var key sql.NullString
	if response.RespondentKey != "" {
		key = sql.NullString{String: response.RespondentKey, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO survey_responses
		(id, survey_id, respondent_id, respondent_key, ip_address, user_agent, submitted_at, is_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		response.ID, response.SurveyID, response.RespondentID, key,
		response.IPAddress, response.UserAgent, response.SubmittedAt, response.IsComplete)
	if isUniqueViolation(err) {
		return fault.ErrUniqueViolation
	}
	return err
}

func (s *PostgresSurveyStore) DeleteResponse(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM survey_responses WHERE id = $1`, id)
	return err
}

func (s *PostgresSurveyStore) CountResponses(ctx context.Context, surveyID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM survey_responses WHERE survey_id = $1`, surveyID)
	return n, err
}

func (s *PostgresSurveyStore) HasRespondentKey(ctx context.Context, surveyID string, respondentKey string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(
		SELECT 1 FROM survey_responses WHERE survey_id = $1 AND respondent_key = $2)`, surveyID, respondentKey)
	return exists, err
}

func (s *PostgresSurveyStore) ListResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	var rows []responseRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, survey_id, respondent_id, respondent_key, ip_address,
		user_agent, submitted_at, is_complete
		FROM survey_responses WHERE survey_id = $1 ORDER BY submitted_at DESC, id`, surveyID)
	if err != nil {
		return nil, err
	}
	responses := make([]models.SurveyResponse, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, r.model())
	}
	return responses, nil
}

func (s *PostgresSurveyStore) InsertAnswers(ctx context.Context, answers []models.SurveyAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `INSERT INTO survey_answers
		(id, response_id, question_id, answer_text, answer_number, selected_options)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, a := range answers {
		selected := a.SelectedOptions
		if selected == nil {
			selected = []string{}
		}
		_, err := tx.ExecContext(ctx, query, a.ID, a.ResponseID, a.QuestionID, a.AnswerText,
			a.AnswerNumber, pq.StringArray(selected))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

const answerColumns = `id, response_id, question_id, answer_text, answer_number, selected_options`

func (s *PostgresSurveyStore) ListAnswersByQuestion(ctx context.Context, questionID string) ([]models.SurveyAnswer, error) {
	var rows []answerRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+answerColumns+` FROM survey_answers WHERE question_id = $1`, questionID)
	if err != nil {
		return nil, err
	}
	return answerModels(rows), nil
}

func (s *PostgresSurveyStore) ListAnswersByResponses(ctx context.Context, responseIDs []string) ([]models.SurveyAnswer, error) {
	if len(responseIDs) == 0 {
		return []models.SurveyAnswer{}, nil
	}
	var rows []answerRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+answerColumns+` FROM survey_answers WHERE response_id = ANY($1)`, pq.Array(responseIDs))
	if err != nil {
		return nil, err
	}
	return answerModels(rows), nil
}

func answerModels(rows []answerRow) []models.SurveyAnswer {
	answers := make([]models.SurveyAnswer, 0, len(rows))
	for _, r := range rows {
		answers = append(answers, r.model())
	}
	return answers
}
