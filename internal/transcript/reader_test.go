package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadLog(t *testing.T) {
	log := `{"type":"message","message":{"role":"user","content":"hello"},"timestamp":"2024-01-01T09:00:00Z"}
{"type":"session_start","timestamp":"2024-01-01T09:00:00Z"}
{"type":"message","message":{"role":"assistant","content":"hi"}}
`
	records, skipped := ReadLog(strings.NewReader(log))
	if skipped != 0 {
		t.Errorf("skipped = %d", skipped)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d", len(records))
	}
	if records[0].Kind != KindMessage || records[0].Message.Role != RoleUser {
		t.Errorf("record 0 = %+v", records[0])
	}
	if got := ExtractText(records[0].Message.Content); got != "hello" {
		t.Errorf("content = %q", got)
	}
	if records[1].Kind != "session_start" {
		t.Errorf("record 1 kind = %q", records[1].Kind)
	}
}

func TestReadLogSkipsMalformedLines(t *testing.T) {
	log := `{"type":"message","message":{"role":"user","content":"one"}}
not json at all
{"broken":
{"type":"message","message":{"role":"assistant","content":"two"}}
`
	records, skipped := ReadLog(strings.NewReader(log))
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestReadLogEmptyAndBlankLines(t *testing.T) {
	records, skipped := ReadLog(strings.NewReader("\n\n"))
	if len(records) != 0 || skipped != 0 {
		t.Errorf("records = %d, skipped = %d", len(records), skipped)
	}
}

func TestReadLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	content := `{"type":"message","message":{"role":"user","content":"hi"}}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	records, skipped, err := ReadLogFile(path)
	if err != nil {
		t.Fatalf("ReadLogFile failed: %v", err)
	}
	if len(records) != 1 || skipped != 0 {
		t.Errorf("records = %d, skipped = %d", len(records), skipped)
	}
	// Restartable: a second read yields the same sequence.
	again, _, err := ReadLogFile(path)
	if err != nil || len(again) != 1 {
		t.Errorf("second read: %d records, err %v", len(again), err)
	}

	if _, _, err := ReadLogFile(filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}
