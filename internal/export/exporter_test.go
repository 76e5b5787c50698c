package export

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const sampleLog = `{"type":"message","message":{"role":"user","content":"i like my coffee black"},"timestamp":"2026-02-01T08:00:00Z"}
{"type":"message","message":{"role":"assistant","content":"Noted, black coffee it is."}}
{"type":"message","message":{"role":"user","content":"summarize this pdf"},"timestamp":"2026-02-01T09:00:00Z"}
{"type":"message","message":{"role":"assistant","content":"Here is the summary of the document you sent."}}
`

func TestCollectPairs(t *testing.T) {
	sessions := t.TempDir()
	writeFile(t, filepath.Join(sessions, "a.jsonl"), sampleLog)

	e := NewExporter([]string{sessions}, t.TempDir(), nil)
	pairs, err := e.CollectPairs()
	if err != nil {
		t.Fatalf("CollectPairs: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].User != "i like my coffee black" {
		t.Errorf("pair 0 user = %q", pairs[0].User)
	}
	if pairs[0].Timestamp != "2026-02-01T08:00:00Z" {
		t.Errorf("pair 0 timestamp = %q", pairs[0].Timestamp)
	}
}

func TestRunFilterPreferences(t *testing.T) {
	sessions := t.TempDir()
	writeFile(t, filepath.Join(sessions, "a.jsonl"), sampleLog)

	e := NewExporter([]string{sessions}, t.TempDir(), nil)
	pairs, stats, err := e.Run(Options{FilterPreferences: true, MinAssistantLength: 10, StatsOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 preference pair, got %d", len(pairs))
	}
	if pairs[0].User != "i like my coffee black" {
		t.Errorf("kept wrong pair: %q", pairs[0].User)
	}
	if stats.TotalPairs != 1 || stats.PreferenceRelated != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunMinAssistantLength(t *testing.T) {
	sessions := t.TempDir()
	log := `{"type":"message","message":{"role":"user","content":"say ok"},"timestamp":""}
{"type":"message","message":{"role":"assistant","content":"ok"}}
`
	writeFile(t, filepath.Join(sessions, "a.jsonl"), log)

	e := NewExporter([]string{sessions}, t.TempDir(), nil)
	pairs, _, err := e.Run(Options{MinAssistantLength: 10, StatsOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 0 {
		t.Errorf("short assistant reply should be dropped, got %d pairs", len(pairs))
	}
}

func TestMemoryContextPairs(t *testing.T) {
	memory := t.TempDir()
	writeFile(t, filepath.Join(memory, "project-summary.md"), strings.Repeat("status ", 400))
	writeFile(t, filepath.Join(memory, "2026-02-15.md"), "shipped the chunker")
	writeFile(t, filepath.Join(memory, "random-notes.md"), "not a context file")

	e := NewExporter(nil, memory, nil)
	pairs, err := e.MemoryContextPairs()
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}

	byUser := map[string]Pair{}
	for _, p := range pairs {
		byUser[p.User] = p
	}
	summary, ok := byUser["What's the current status of the project?"]
	if !ok {
		t.Fatal("missing project summary pair")
	}
	if len([]rune(summary.Assistant)) > 2000 {
		t.Errorf("summary not truncated: %d runes", len([]rune(summary.Assistant)))
	}
	daily, ok := byUser["What happened on 2026-02-15?"]
	if !ok {
		t.Fatal("missing daily note pair")
	}
	if daily.Assistant != "shipped the chunker" {
		t.Errorf("daily note = %q", daily.Assistant)
	}
}

func TestRunWritesShareGPT(t *testing.T) {
	sessions := t.TempDir()
	writeFile(t, filepath.Join(sessions, "a.jsonl"), sampleLog)
	output := filepath.Join(t.TempDir(), "training.jsonl")

	e := NewExporter([]string{sessions}, t.TempDir(), nil)
	if _, _, err := e.Run(Options{Output: output, MinAssistantLength: 10}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var sample struct {
			Conversations []struct {
				From  string `json:"from"`
				Value string `json:"value"`
			} `json:"conversations"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &sample); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines, err)
		}
		if len(sample.Conversations) != 3 {
			t.Fatalf("expected 3 turns, got %d", len(sample.Conversations))
		}
		wantRoles := []string{"system", "human", "gpt"}
		for i, turn := range sample.Conversations {
			if turn.From != wantRoles[i] {
				t.Errorf("turn %d role = %q, want %q", i, turn.From, wantRoles[i])
			}
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 samples, got %d", lines)
	}
}

func TestIsPreferenceRelated(t *testing.T) {
	tests := []struct {
		user, assistant string
		want            bool
	}{
		{"i prefer tea", "noted", true},
		{"anything", "you usually wake up at six", true},
		{"fix this stack trace", "the nil map is the problem", false},
	}
	for _, tt := range tests {
		if got := IsPreferenceRelated(tt.user, tt.assistant); got != tt.want {
			t.Errorf("IsPreferenceRelated(%q, %q) = %v, want %v", tt.user, tt.assistant, got, tt.want)
		}
	}
}
