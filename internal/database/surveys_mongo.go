package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/internal/models"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/fault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	surveysCollection   = "surveys"
	questionsCollection = "survey_questions"
	responsesCollection = "survey_responses"
	answersCollection   = "survey_answers"
)

// MongoSurveyStore keeps each entity in its own collection. Only question
// replacement runs in a transaction, and only where the deployment supports one.
type MongoSurveyStore struct {
	db *mongo.Database
}

func NewMongoSurveyStore(db *mongo.Database) *MongoSurveyStore {
	return &MongoSurveyStore{db: db}
}

// EnsureSurveyIndexes configures indexes for the survey collections.
// Called on startup from main after Mongo has connected.
func EnsureSurveyIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		surveysCollection: {
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_status_created_at"),
			},
		},
		questionsCollection: {
			{
				Keys:    bson.D{{Key: "survey_id", Value: 1}, {Key: "order_index", Value: 1}, {Key: "position", Value: 1}},
				Options: options.Index().SetName("idx_survey_order"),
			},
		},
		responsesCollection: {
			{
				Keys:    bson.D{{Key: "survey_id", Value: 1}, {Key: "submitted_at", Value: -1}},
				Options: options.Index().SetName("idx_survey_submitted_at"),
			},
			{
				// only responses carrying a respondent key take part in the uniqueness check
				Keys: bson.D{{Key: "survey_id", Value: 1}, {Key: "respondent_key", Value: 1}},
				Options: options.Index().
					SetName("uq_survey_respondent_key").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"respondent_key": bson.M{"$exists": true}}),
			},
		},
		answersCollection: {
			{
				Keys:    bson.D{{Key: "question_id", Value: 1}},
				Options: options.Index().SetName("idx_question_id"),
			},
			{
				Keys:    bson.D{{Key: "response_id", Value: 1}},
				Options: options.Index().SetName("idx_response_id"),
			},
		},
	}

	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoSurveyStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *MongoSurveyStore) InsertSurvey(ctx context.Context, survey *models.SurveyDefinition) error {
	_, err := s.col(surveysCollection).InsertOne(ctx, survey)
	return err
}

func (s *MongoSurveyStore) UpdateSurvey(ctx context.Context, id string, patch models.SurveyPatch, updatedAt time.Time) (*models.SurveyDefinition, error) {
	set := bson.M{"updated_at": updatedAt}
	unset := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.StartDate != nil {
		set["start_date"] = *patch.StartDate
	} else if patch.ClearStartDate {
		unset["start_date"] = ""
	}
	if patch.EndDate != nil {
		set["end_date"] = *patch.EndDate
	} else if patch.ClearEndDate {
		unset["end_date"] = ""
	}
	if patch.IsAnonymous != nil {
		set["is_anonymous"] = *patch.IsAnonymous
	}
	if patch.AllowMultipleResponses != nil {
		set["allow_multiple_responses"] = *patch.AllowMultipleResponses
	}
	if patch.MaxResponses != nil {
		set["max_responses"] = *patch.MaxResponses
	} else if patch.ClearMaxResponses {
		unset["max_responses"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var survey models.SurveyDefinition
	err := s.col(surveysCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&survey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fault.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// DeleteSurvey removes answers, responses and questions before the survey itself.
func (s *MongoSurveyStore) DeleteSurvey(ctx context.Context, id string) error {
	responseIDs, err := s.col(responsesCollection).Distinct(ctx, "_id", bson.M{"survey_id": id})
	if err != nil {
		return err
	}
	if len(responseIDs) > 0 {
		if _, err := s.col(answersCollection).DeleteMany(ctx, bson.M{"response_id": bson.M{"$in": responseIDs}}); err != nil {
			return err
		}
	}
	if _, err := s.col(responsesCollection).DeleteMany(ctx, bson.M{"survey_id": id}); err != nil {
		return err
	}
	if _, err := s.col(questionsCollection).DeleteMany(ctx, bson.M{"survey_id": id}); err != nil {
		return err
	}

	res, err := s.col(surveysCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fault.ErrSurveyNotFound
	}
	return nil
}

func (s *MongoSurveyStore) GetSurvey(ctx context.Context, id string) (*models.SurveyDefinition, error) {
	var survey models.SurveyDefinition
	err := s.col(surveysCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&survey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fault.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (s *MongoSurveyStore) ListSurveys(ctx context.Context, status *models.SurveyStatus) ([]models.SurveyDefinition, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := s.col(surveysCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	surveys := []models.SurveyDefinition{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

func (s *MongoSurveyStore) InsertQuestions(ctx context.Context, questions []models.SurveyQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	docs := make([]any, len(questions))
	for i, q := range questions {
		docs[i] = q
	}
	_, err := s.col(questionsCollection).InsertMany(ctx, docs)
	return err
}

// ReplaceQuestions runs delete-then-insert in a transaction. Standalone servers
// have no transactions; there the two writes run unguarded.
func (s *MongoSurveyStore) ReplaceQuestions(ctx context.Context, surveyID string, questions []models.SurveyQuestion) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, s.replaceQuestions(sc, surveyID, questions)
	})
	if transactionsUnsupported(err) {
		return s.replaceQuestions(ctx, surveyID, questions)
	}
	return err
}

func (s *MongoSurveyStore) replaceQuestions(ctx context.Context, surveyID string, questions []models.SurveyQuestion) error {
	if _, err := s.col(questionsCollection).DeleteMany(ctx, bson.M{"survey_id": surveyID}); err != nil {
		return err
	}
	return s.InsertQuestions(ctx, questions)
}

// illegalOperation is returned by standalone servers for transactional commands.
const illegalOperation = 20

func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.Code == illegalOperation || strings.Contains(cmdErr.Message, "Transaction numbers are only allowed")
}

func (s *MongoSurveyStore) ListQuestions(ctx context.Context, surveyID string) ([]models.SurveyQuestion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}, {Key: "position", Value: 1}})
	cursor, err := s.col(questionsCollection).Find(ctx, bson.M{"survey_id": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	questions := []models.SurveyQuestion{}
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].Options == nil {
			questions[i].Options = []string{}
		}
	}
	return questions, nil
}

func (s *MongoSurveyStore) InsertResponse(ctx context.Context, response *models.SurveyResponse) error {
	_, err := s.col(responsesCollection).InsertOne(ctx, response)
	if mongo.IsDuplicateKeyError(err) {
		return fault.ErrUniqueViolation
	}
	return err
}

func (s *MongoSurveyStore) DeleteResponse(ctx context.Context, id string) error {
	if _, err := s.col(answersCollection).DeleteMany(ctx, bson.M{"response_id": id}); err != nil {
		return err
	}
	_, err := s.col(responsesCollection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoSurveyStore) CountResponses(ctx context.Context, surveyID string) (int, error) {
	n, err := s.col(responsesCollection).CountDocuments(ctx, bson.M{"survey_id": surveyID})
	return int(n), err
}

func (s *MongoSurveyStore) HasRespondentKey(ctx context.Context, surveyID string, respondentKey string) (bool, error) {
	n, err := s.col(responsesCollection).CountDocuments(ctx,
		bson.M{"survey_id": surveyID, "respondent_key": respondentKey},
		options.Count().SetLimit(1))
	return n > 0, err
}

func (s *MongoSurveyStore) ListResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.col(responsesCollection).Find(ctx, bson.M{"survey_id": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	responses := []models.SurveyResponse{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *MongoSurveyStore) InsertAnswers(ctx context.Context, answers []models.SurveyAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	docs := make([]any, len(answers))
	for i, a := range answers {
		docs[i] = a
	}
	_, err := s.col(answersCollection).InsertMany(ctx, docs)
	return err
}

func (s *MongoSurveyStore) ListAnswersByQuestion(ctx context.Context, questionID string) ([]models.SurveyAnswer, error) {
	return s.findAnswers(ctx, bson.M{"question_id": questionID})
}

func (s *MongoSurveyStore) ListAnswersByResponses(ctx context.Context, responseIDs []string) ([]models.SurveyAnswer, error) {
	if len(responseIDs) == 0 {
		return []models.SurveyAnswer{}, nil
	}
	return s.findAnswers(ctx, bson.M{"response_id": bson.M{"$in": responseIDs}})
}

func (s *MongoSurveyStore) findAnswers(ctx context.Context, filter bson.M) ([]models.SurveyAnswer, error) {
	cursor, err := s.col(answersCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	answers := []models.SurveyAnswer{}
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}
