package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kioku/internal/export"
	"github.com/hyperjump/kioku/internal/models"
)

func TestWriteSearchResultsText(t *testing.T) {
	resp := &models.SearchResponse{
		Results: []models.SearchHit{
			{ID: "memory_notes_0_0", Text: "coffee at 7am", Metadata: map[string]string{"source": "memory/notes.md"}, Distance: 0.12},
		},
		Count: 1,
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 1 results", "memory_notes_0_0", "memory/notes.md", "0.1200", "coffee at 7am"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSearchResultsJSON(t *testing.T) {
	resp := &models.SearchResponse{Results: []models.SearchHit{{ID: "x", Text: "y"}}, Count: 1}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, resp, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if decoded.Count != 1 || decoded.Results[0].ID != "x" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteQueryResponseText(t *testing.T) {
	resp := &models.QueryResponse{
		Answer:  "You drink coffee at 7am.",
		Sources: []models.SourceRef{{Text: "coffee at 7am", Distance: 0.1}},
		Model:   "qwen3:4b",
	}
	var buf bytes.Buffer
	if err := WriteQueryResponse(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"You drink coffee at 7am.", "Sources (1)", "qwen3:4b"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteClassifyResponse(t *testing.T) {
	var buf bytes.Buffer
	err := WriteClassifyResponse(&buf, &models.ClassifyResponse{Category: "PERSONAL", Confidence: "high"}, OutputText)
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != "PERSONAL (confidence: high)\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteExportStats(t *testing.T) {
	var buf bytes.Buffer
	WriteExportStats(&buf, export.Stats{TotalPairs: 4, PreferenceRelated: 2, AvgUserLen: 20.4, AvgAssistantLen: 99.6})
	out := buf.String()
	for _, want := range []string{"Total Q&A pairs extracted: 4", "Preference-related: 2", "20 chars", "100 chars"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
