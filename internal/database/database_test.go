package database

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongoDatabaseName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{uri: "mongodb://localhost:27017/portal", want: "portal"},
		{uri: "mongodb+srv://u:p@cluster.example.net/surveys?retryWrites=true", want: "surveys"},
		{uri: "mongodb://localhost:27017/", want: defaultMongoDatabase},
		{uri: "mongodb://localhost:27017", want: defaultMongoDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := mongoDatabaseName(tt.uri); got != tt.want {
				t.Errorf("mongoDatabaseName(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestTransactionsUnsupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "standalone server", err: mongo.CommandError{Code: 20, Name: "IllegalOperation", Message: "Transaction numbers are only allowed on a replica set member or mongos"}, want: true},
		{name: "wrapped", err: fmt.Errorf("replace: %w", mongo.CommandError{Code: 20}), want: true},
		{name: "other command error", err: mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}, want: false},
		{name: "plain error", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transactionsUnsupported(tt.err); got != tt.want {
				t.Errorf("transactionsUnsupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
