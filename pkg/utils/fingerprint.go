package utils

import (
	"encoding/base64"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// DecodeRespondentKey decodes a base64 secret used to key respondent fingerprints.
// Keys longer than 64 bytes are hashed down to 32 bytes.
func DecodeRespondentKey(keyBase64 string) ([]byte, error) {
	if keyBase64 == "" {
		return nil, errors.New("RESPONDENT_KEY environment variable not set")
	}

	keyBytes, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, errors.New("RESPONDENT_KEY must be base64-encoded")
	}
	if len(keyBytes) < 16 {
		return nil, errors.New("RESPONDENT_KEY must decode to at least 16 bytes")
	}
	if len(keyBytes) > blake2b.Size {
		sum := blake2b.Sum256(keyBytes)
		keyBytes = sum[:]
	}

	return keyBytes, nil
}

// Fingerprint derives a stable, non-reversible identifier for a respondent
// within one survey, so single-response rules hold without storing identity.
func Fingerprint(key []byte, surveyID string, respondentID string) string {
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		// only reachable with an oversized key, handled above
		panic(err)
	}
	h.Write([]byte(surveyID))
	h.Write([]byte{0})
	h.Write([]byte(respondentID))
	return hex.EncodeToString(h.Sum(nil))
}
