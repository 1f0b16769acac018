package database

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
)

// MemorySurveyStore is a process-local store for development and tests.
// Values are copied in and out so callers never share state with the store.
type MemorySurveyStore struct {
	mu sync.RWMutex

	surveys   map[string]models.SurveyDefinition
	questions map[string][]models.SurveyQuestion // by survey id
	responses map[string]models.SurveyResponse
	answers   map[string][]models.SurveyAnswer // by response id

	// respondentKeys holds surveyID+"\x00"+respondentKey for every keyed response
	respondentKeys map[string]string // -> response id

	seq     int64
	ordered map[string]int64 // insertion sequence, breaks created_at ties
}

func NewMemorySurveyStore() *MemorySurveyStore {
	return &MemorySurveyStore{
		surveys:        make(map[string]models.SurveyDefinition),
		questions:      make(map[string][]models.SurveyQuestion),
		responses:      make(map[string]models.SurveyResponse),
		answers:        make(map[string][]models.SurveyAnswer),
		respondentKeys: make(map[string]string),
		ordered:        make(map[string]int64),
	}
}

func respondentKeyOf(surveyID, key string) string {
	return surveyID + "\x00" + key
}

func (s *MemorySurveyStore) next(id string) {
	s.seq++
	s.ordered[id] = s.seq
}

func (s *MemorySurveyStore) InsertSurvey(_ context.Context, survey *models.SurveyDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.surveys[survey.ID]; ok {
		return fault.ErrUniqueViolation
	}
	stored := copySurvey(*survey)
	stored.Questions = nil
	s.surveys[survey.ID] = stored
	s.next(survey.ID)
	return nil
}

func (s *MemorySurveyStore) UpdateSurvey(_ context.Context, id string, patch models.SurveyPatch, updatedAt time.Time) (*models.SurveyDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	survey, ok := s.surveys[id]
	if !ok {
		return nil, fault.ErrSurveyNotFound
	}
	patch.Apply(&survey)
	survey.UpdatedAt = updatedAt
	s.surveys[id] = survey

	out := copySurvey(survey)
	return &out, nil
}

func (s *MemorySurveyStore) DeleteSurvey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.surveys[id]; !ok {
		return fault.ErrSurveyNotFound
	}
	for rid, r := range s.responses {
		if r.SurveyID == id {
			s.deleteResponseLocked(rid)
		}
	}
	delete(s.questions, id)
	delete(s.surveys, id)
	delete(s.ordered, id)
	return nil
}

func (s *MemorySurveyStore) GetSurvey(_ context.Context, id string) (*models.SurveyDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	survey, ok := s.surveys[id]
	if !ok {
		return nil, fault.ErrSurveyNotFound
	}
	out := copySurvey(survey)
	return &out, nil
}

func (s *MemorySurveyStore) ListSurveys(_ context.Context, status *models.SurveyStatus) ([]models.SurveyDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	surveys := make([]models.SurveyDefinition, 0, len(s.surveys))
	for _, survey := range s.surveys {
		if status != nil && survey.Status != *status {
			continue
		}
		surveys = append(surveys, copySurvey(survey))
	}
	slices.SortFunc(surveys, func(a, b models.SurveyDefinition) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(s.ordered[b.ID] - s.ordered[a.ID])
	})
	return surveys, nil
}

func (s *MemorySurveyStore) InsertQuestions(_ context.Context, questions []models.SurveyQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range questions {
		if _, ok := s.surveys[q.SurveyID]; !ok {
			return fault.ErrSurveyNotFound
		}
	}
	for _, q := range questions {
		s.questions[q.SurveyID] = append(s.questions[q.SurveyID], copyQuestion(q))
	}
	return nil
}

func (s *MemorySurveyStore) ReplaceQuestions(_ context.Context, surveyID string, questions []models.SurveyQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.surveys[surveyID]; !ok {
		return fault.ErrSurveyNotFound
	}
	replaced := make([]models.SurveyQuestion, 0, len(questions))
	for _, q := range questions {
		replaced = append(replaced, copyQuestion(q))
	}
	s.questions[surveyID] = replaced
	return nil
}

func (s *MemorySurveyStore) ListQuestions(_ context.Context, surveyID string) ([]models.SurveyQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.questions[surveyID]
	questions := make([]models.SurveyQuestion, 0, len(stored))
	for _, q := range stored {
		questions = append(questions, copyQuestion(q))
	}
	slices.SortStableFunc(questions, func(a, b models.SurveyQuestion) int {
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex - b.OrderIndex
		}
		return a.Position - b.Position
	})
	return questions, nil
}

func (s *MemorySurveyStore) InsertResponse(_ context.Context, response *models.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.surveys[response.SurveyID]; !ok {
		return fault.ErrSurveyNotFound
	}
	if _, ok := s.responses[response.ID]; ok {
		return fault.ErrUniqueViolation
	}
	if response.RespondentKey != "" {
		key := respondentKeyOf(response.SurveyID, response.RespondentKey)
		if _, taken := s.respondentKeys[key]; taken {
			return fault.ErrUniqueViolation
		}
		s.respondentKeys[key] = response.ID
	}

	stored := copyResponse(*response)
	stored.Answers = nil
	s.responses[response.ID] = stored
	s.next(response.ID)
	return nil
}

func (s *MemorySurveyStore) DeleteResponse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteResponseLocked(id)
	return nil
}

func (s *MemorySurveyStore) deleteResponseLocked(id string) {
	r, ok := s.responses[id]
	if !ok {
		return
	}
	if r.RespondentKey != "" {
		delete(s.respondentKeys, respondentKeyOf(r.SurveyID, r.RespondentKey))
	}
	delete(s.answers, id)
	delete(s.responses, id)
	delete(s.ordered, id)
}

func (s *MemorySurveyStore) CountResponses(_ context.Context, surveyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			n++
		}
	}
	return n, nil
}

func (s *MemorySurveyStore) HasRespondentKey(_ context.Context, surveyID string, respondentKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.respondentKeys[respondentKeyOf(surveyID, respondentKey)]
	return ok, nil
}

func (s *MemorySurveyStore) ListResponses(_ context.Context, surveyID string) ([]models.SurveyResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	responses := []models.SurveyResponse{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			responses = append(responses, copyResponse(r))
		}
	}
	slices.SortFunc(responses, func(a, b models.SurveyResponse) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return int(s.ordered[b.ID] - s.ordered[a.ID])
	})
	return responses, nil
}

func (s *MemorySurveyStore) InsertAnswers(_ context.Context, answers []models.SurveyAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range answers {
		if _, ok := s.responses[a.ResponseID]; !ok {
			return fault.NewNotFound("response not found")
		}
	}
	for _, a := range answers {
		s.answers[a.ResponseID] = append(s.answers[a.ResponseID], copyAnswer(a))
	}
	return nil
}

func (s *MemorySurveyStore) ListAnswersByQuestion(_ context.Context, questionID string) ([]models.SurveyAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answers := []models.SurveyAnswer{}
	for _, rid := range s.responseIDsLocked() {
		for _, a := range s.answers[rid] {
			if a.QuestionID == questionID {
				answers = append(answers, copyAnswer(a))
			}
		}
	}
	return answers, nil
}

func (s *MemorySurveyStore) ListAnswersByResponses(_ context.Context, responseIDs []string) ([]models.SurveyAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answers := []models.SurveyAnswer{}
	for _, rid := range responseIDs {
		for _, a := range s.answers[rid] {
			answers = append(answers, copyAnswer(a))
		}
	}
	return answers, nil
}

// responseIDsLocked returns response ids in insertion order.
func (s *MemorySurveyStore) responseIDsLocked() []string {
	ids := make([]string, 0, len(s.answers))
	for rid := range s.answers {
		ids = append(ids, rid)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return int(s.ordered[a] - s.ordered[b])
	})
	return ids
}

func copySurvey(in models.SurveyDefinition) models.SurveyDefinition {
	out := in
	if in.StartDate != nil {
		t := *in.StartDate
		out.StartDate = &t
	}
	if in.EndDate != nil {
		t := *in.EndDate
		out.EndDate = &t
	}
	if in.MaxResponses != nil {
		n := *in.MaxResponses
		out.MaxResponses = &n
	}
	out.Questions = nil
	return out
}

func copyQuestion(in models.SurveyQuestion) models.SurveyQuestion {
	out := in
	out.Options = append([]string{}, in.Options...)
	return out
}

func copyResponse(in models.SurveyResponse) models.SurveyResponse {
	out := in
	if in.RespondentID != nil {
		id := *in.RespondentID
		out.RespondentID = &id
	}
	out.Answers = nil
	return out
}

func copyAnswer(in models.SurveyAnswer) models.SurveyAnswer {
	out := in
	if in.AnswerNumber != nil {
		v := *in.AnswerNumber
		out.AnswerNumber = &v
	}
	if in.SelectedOptions != nil {
		out.SelectedOptions = append([]string{}, in.SelectedOptions...)
	}
	return out
}
