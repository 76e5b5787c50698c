// Package classify decides whether a message can be handled by the local
// model or needs a more capable path.
package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/ollama"
)

// Routing categories and confidence levels.
const (
	CategoryPersonal = "PERSONAL"
	CategoryComplex  = "COMPLEX"

	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

const classifierTemperature = 0.1

const classifierSystem = `You are a message classifier. Classify the user's message into one of these categories:
- PERSONAL: questions about preferences, routines, habits, personal info, greetings, casual chat
- COMPLEX: requires reasoning, coding, analysis, tool use, web search, or real-time information

Respond with ONLY the category name, nothing else. Do not use thinking tags.`

// personalKeywords is the heuristic signal checked independently of the model.
var personalKeywords = []string{
	"good morning", "good night", "bom dia", "boa noite",
	"how are you", "what's up", "hi ", "hello", "hey",
	"i like", "i prefer", "my favorite", "remind me",
	"what time", "my routine", "my schedule",
}

// Generator is the model collaborator used for the label signal.
type Generator interface {
	Chat(ctx context.Context, messages []ollama.ChatMessage, temperature float64) (string, error)
}

// Classifier combines the model's label with a keyword heuristic. Agreement
// of the two signals is what earns high confidence; neither is trusted alone.
type Classifier struct {
	generator Generator
	logger    *zap.Logger
}

// NewClassifier creates a classifier over the given generator.
func NewClassifier(generator Generator, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{generator: generator, logger: logger}
}

// Classify returns the routing category for the message and a confidence
// level. Garbled model replies default to COMPLEX, failing closed toward the
// more capable path.
func (c *Classifier) Classify(ctx context.Context, message string) (*models.ClassifyResponse, error) {
	messages := []ollama.ChatMessage{
		{Role: "system", Content: classifierSystem},
		{Role: "user", Content: message},
	}
	reply, err := c.generator.Chat(ctx, messages, classifierTemperature)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	category := CategoryComplex
	if strings.Contains(strings.ToUpper(reply), CategoryPersonal) {
		category = CategoryPersonal
	}

	keywordMatch := MatchesPersonalKeyword(message)
	confidence := ConfidenceLow
	if keywordMatch == (category == CategoryPersonal) {
		confidence = ConfidenceHigh
	}

	c.logger.Debug("message classified",
		zap.String("category", category),
		zap.String("confidence", confidence),
		zap.Bool("keyword_match", keywordMatch))

	return &models.ClassifyResponse{Category: category, Confidence: confidence}, nil
}

// MatchesPersonalKeyword reports whether the message contains any
// personal-context keyword, case-insensitively.
func MatchesPersonalKeyword(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range personalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
