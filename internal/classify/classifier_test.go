package classify

import (
	"context"
	"testing"

	"github.com/hyperjump/kioku/internal/ollama"
)

type fixedGenerator struct {
	reply string
}

func (g *fixedGenerator) Chat(ctx context.Context, messages []ollama.ChatMessage, temperature float64) (string, error) {
	return g.reply, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		message        string
		reply          string
		wantCategory   string
		wantConfidence string
	}{
		{"agreement personal", "good morning! how was my schedule?", "PERSONAL", "PERSONAL", "high"},
		{"agreement complex", "implement a b-tree in rust", "COMPLEX", "COMPLEX", "high"},
		{"model says personal, no keyword", "explain quantum tunneling", "PERSONAL", "PERSONAL", "low"},
		{"keyword but model says complex", "remind me to refactor the parser", "COMPLEX", "COMPLEX", "low"},
		{"lowercase reply still parses", "good night", "personal", "PERSONAL", "high"},
		{"verbose reply containing label", "what time is it", "The category is PERSONAL.", "PERSONAL", "high"},
		{"garbled reply defaults to complex", "derive the gradient", "I am not sure", "COMPLEX", "high"},
		{"garbled reply with keyword", "bom dia", "???", "COMPLEX", "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&fixedGenerator{reply: tt.reply}, nil)
			resp, err := c.Classify(context.Background(), tt.message)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if resp.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", resp.Category, tt.wantCategory)
			}
			if resp.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %q, want %q", resp.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestMatchesPersonalKeyword(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Good Morning everyone", true},
		{"I LIKE espresso", true},
		{"hi there", true},
		{"compute the eigenvalues", false},
		{"this is highly technical", false},
	}
	for _, tt := range tests {
		if got := MatchesPersonalKeyword(tt.message); got != tt.want {
			t.Errorf("MatchesPersonalKeyword(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}
