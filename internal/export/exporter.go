// Package export turns session logs and memory files into fine-tuning
// datasets in ShareGPT JSONL format.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/transcript"
	"github.com/hyperjump/kioku/pkg/utils"
)

const defaultTrainingSystemPrompt = "You are a personal AI assistant. " +
	"You know the user's preferences, routines, and habits. " +
	"Be concise, friendly, and helpful. Skip filler words."

const (
	projectSummaryLimit = 2000
	dailyNoteLimit      = 1500
	minUserRunes        = 2
)

// preferenceKeywords marks exchanges that carry preference, routine, or
// personal-info signal worth keeping in a filtered dataset.
var preferenceKeywords = []string{
	"i like", "i prefer", "i want", "i need", "i usually",
	"i always", "i never", "my favorite", "i enjoy", "i hate",
	"my routine", "every morning", "every day", "every night",
	"wake up", "go to bed", "schedule", "remind me",
	"my name", "i live", "i work", "i'm from",
	"call me", "don't call me", "i go by",
	"set temperature", "turn on", "turn off",
	"good morning", "good night", "bom dia", "boa noite",
}

var dailyNoteStem = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Options controls one export run.
type Options struct {
	Output             string
	FilterPreferences  bool
	IncludeMemory      bool
	MinAssistantLength int
	StatsOnly          bool
	SystemPrompt       string
}

// Pair is one user/assistant training example.
type Pair struct {
	User      string
	Assistant string
	Timestamp string
}

// Stats summarizes an exported dataset.
type Stats struct {
	TotalPairs        int
	PreferenceRelated int
	AvgUserLen        float64
	AvgAssistantLen   float64
}

// Exporter extracts training pairs from the knowledge tree.
type Exporter struct {
	sessionDirs []string
	memoryDir   string
	logger      *zap.Logger
}

// NewExporter creates an exporter over the given source directories.
func NewExporter(sessionDirs []string, memoryDir string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{sessionDirs: sessionDirs, memoryDir: memoryDir, logger: logger}
}

// Run collects, filters, and writes the dataset per opts, returning the pairs
// kept and their stats. With StatsOnly set, nothing is written.
func (e *Exporter) Run(opts Options) ([]Pair, Stats, error) {
	pairs, err := e.CollectPairs()
	if err != nil {
		return nil, Stats{}, err
	}

	if opts.FilterPreferences {
		kept := pairs[:0]
		for _, p := range pairs {
			if IsPreferenceRelated(p.User, p.Assistant) {
				kept = append(kept, p)
			}
		}
		pairs = kept
	}

	if opts.MinAssistantLength > 0 {
		kept := pairs[:0]
		for _, p := range pairs {
			if len(p.Assistant) >= opts.MinAssistantLength {
				kept = append(kept, p)
			}
		}
		pairs = kept
	}

	// Memory context pairs bypass the length filter; they are synthesized,
	// not extracted, and their length is already bounded.
	if opts.IncludeMemory {
		memoryPairs, err := e.MemoryContextPairs()
		if err != nil {
			return nil, Stats{}, err
		}
		pairs = append(pairs, memoryPairs...)
	}

	stats := ComputeStats(pairs)
	if opts.StatsOnly {
		return pairs, stats, nil
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	if err := WriteShareGPT(f, pairs, opts.SystemPrompt); err != nil {
		return nil, Stats{}, err
	}
	e.logger.Info("training data written",
		zap.String("output", opts.Output),
		zap.Int("samples", len(pairs)))
	return pairs, stats, nil
}

// CollectPairs extracts user/assistant pairs from every session log,
// including rotated ones.
func (e *Exporter) CollectPairs() ([]Pair, error) {
	var pairs []Pair
	for _, dir := range e.sessionDirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			e.logger.Warn("session directory missing, skipping", zap.String("dir", dir))
			continue
		}
		for _, pattern := range []string{"*.jsonl", "*.jsonl.old"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			for _, path := range matches {
				records, _, err := transcript.ReadLogFile(path)
				if err != nil {
					e.logger.Warn("read session log failed, skipping", zap.String("path", path), zap.Error(err))
					continue
				}
				opts := transcript.ExtractOptions{MinUserLen: minUserRunes}
				for _, ex := range transcript.ExtractExchanges(records, opts) {
					pairs = append(pairs, Pair{
						User:      ex.UserText,
						Assistant: ex.AssistantText,
						Timestamp: ex.Timestamp,
					})
				}
			}
		}
	}
	return pairs, nil
}

// MemoryContextPairs synthesizes question/answer pairs from memory files:
// project summaries answer a status question, dated daily notes answer
// "what happened on <date>".
func (e *Exporter) MemoryContextPairs() ([]Pair, error) {
	if _, err := os.Stat(e.memoryDir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(e.memoryDir, "*.md"))
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("read memory file failed, skipping", zap.String("path", path), zap.Error(err))
			continue
		}
		name := filepath.Base(path)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		switch {
		case strings.Contains(name, "project-summary"):
			pairs = append(pairs, Pair{
				User:      "What's the current status of the project?",
				Assistant: utils.TruncateRunes(string(content), projectSummaryLimit),
			})
		case dailyNoteStem.MatchString(stem):
			pairs = append(pairs, Pair{
				User:      fmt.Sprintf("What happened on %s?", stem),
				Assistant: utils.TruncateRunes(string(content), dailyNoteLimit),
			})
		}
	}
	return pairs, nil
}

// IsPreferenceRelated reports whether the exchange mentions preferences,
// routines, or personal details.
func IsPreferenceRelated(userText, assistantText string) bool {
	combined := strings.ToLower(userText + " " + assistantText)
	for _, kw := range preferenceKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// ComputeStats summarizes the pairs.
func ComputeStats(pairs []Pair) Stats {
	stats := Stats{TotalPairs: len(pairs)}
	if len(pairs) == 0 {
		return stats
	}
	var userLen, assistantLen int
	for _, p := range pairs {
		if IsPreferenceRelated(p.User, p.Assistant) {
			stats.PreferenceRelated++
		}
		userLen += len(p.User)
		assistantLen += len(p.Assistant)
	}
	stats.AvgUserLen = float64(userLen) / float64(len(pairs))
	stats.AvgAssistantLen = float64(assistantLen) / float64(len(pairs))
	return stats
}

type shareGPTTurn struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

type shareGPTSample struct {
	Conversations []shareGPTTurn `json:"conversations"`
}

// WriteShareGPT writes one ShareGPT sample per line: a system turn, the user
// turn, and the assistant turn.
func WriteShareGPT(w io.Writer, pairs []Pair, systemPrompt string) error {
	if systemPrompt == "" {
		systemPrompt = defaultTrainingSystemPrompt
	}
	enc := json.NewEncoder(w)
	for _, p := range pairs {
		sample := shareGPTSample{
			Conversations: []shareGPTTurn{
				{From: "system", Value: systemPrompt},
				{From: "human", Value: p.User},
				{From: "gpt", Value: p.Assistant},
			},
		}
		if err := enc.Encode(&sample); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
	}
	return nil
}
