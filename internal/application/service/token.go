package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DecisionTokenBytes is the entropy of a decision token (256 bits)
const DecisionTokenBytes = 32

// GenerateDecisionToken returns a random hex token for a decision link
func GenerateDecisionToken() (string, error) {
	b := make([]byte, DecisionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
