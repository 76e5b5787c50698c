package ingest

import (
	"strings"
	"testing"
)

func TestSplitSections(t *testing.T) {
	text := "intro text here\n## First\nbody one\n## Second\nbody two"
	sections := SplitSections(text)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %q", len(sections), sections)
	}
	if sections[0] != "intro text here" {
		t.Errorf("section 0 = %q", sections[0])
	}
	if !strings.HasPrefix(sections[1], "## First") {
		t.Errorf("heading not kept with section: %q", sections[1])
	}
	if !strings.HasPrefix(sections[2], "## Second") {
		t.Errorf("heading not kept with section: %q", sections[2])
	}
}

func TestSplitSectionsLeadingHeading(t *testing.T) {
	// A heading at the very start has no preceding newline, so it does not
	// open a new section.
	sections := SplitSections("## Only\nbody")
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
}

func TestSplitSectionsIgnoresDeeperHeadings(t *testing.T) {
	sections := SplitSections("intro\n### deep\nmore\n## real\nbody")
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %q", len(sections), sections)
	}
}

func TestChunkSkipsShortSections(t *testing.T) {
	long := strings.Repeat("a", 80)
	text := "tiny\n## " + long + "\n## also tiny"
	c := NewChunker(1600, 400, 50)

	chunks := c.Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	// Dropped sections still consume section indices.
	if chunks[0].SectionIndex != 1 {
		t.Errorf("SectionIndex = %d, want 1", chunks[0].SectionIndex)
	}
	if chunks[0].ChunkIndex != 0 {
		t.Errorf("ChunkIndex = %d, want 0", chunks[0].ChunkIndex)
	}
}

func TestChunkMinSectionLengthCountsRunes(t *testing.T) {
	c := NewChunker(1600, 400, 50)
	// 30 runes but 90 bytes: still below the minimum.
	if chunks := c.Chunk(strings.Repeat("你", 30)); len(chunks) != 0 {
		t.Errorf("30-rune multibyte section kept, got %d chunks", len(chunks))
	}
	if chunks := c.Chunk(strings.Repeat("你", 50)); len(chunks) != 1 {
		t.Errorf("50-rune multibyte section dropped, got %d chunks", len(chunks))
	}
}

func TestChunkWindowCount(t *testing.T) {
	c := NewChunker(1600, 400, 50)
	tests := []struct {
		length int
		want   int
	}{
		{50, 1},
		{1600, 1},
		{1601, 2},
		{2800, 2},
		{2801, 3},
		{4000, 3},
		{4001, 4},
	}
	for _, tt := range tests {
		chunks := c.Chunk(strings.Repeat("x", tt.length))
		if len(chunks) != tt.want {
			t.Errorf("length %d: got %d chunks, want %d", tt.length, len(chunks), tt.want)
		}
	}
}

func TestChunkWindowOverlap(t *testing.T) {
	c := NewChunker(1600, 400, 50)
	text := strings.Repeat("x", 1500) + strings.Repeat("y", 1500)
	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len([]rune(chunks[0].Text)) != 1600 {
		t.Errorf("first window length = %d, want 1600", len([]rune(chunks[0].Text)))
	}
	// Second window starts at rune 1200, re-covering the last 400 runes.
	if !strings.HasPrefix(chunks[1].Text, strings.Repeat("x", 300)) {
		t.Errorf("second window does not overlap the first")
	}
	if chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 1 {
		t.Errorf("chunk indices wrong: %d, %d", chunks[0].ChunkIndex, chunks[1].ChunkIndex)
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/a/b/notes.md", "notes"},
		{"/logs/session.jsonl", "session"},
		{"/logs/session.jsonl.old", "session.jsonl"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := FileStem(tt.path); got != tt.want {
			t.Errorf("FileStem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSourceRel(t *testing.T) {
	tests := []struct {
		root, path string
		want       string
	}{
		{"/mem", "/mem/notes.md", "notes.md"},
		{"/mem", "/mem/projects/notes.md", "projects/notes.md"},
		{"/mem", "/elsewhere/notes.md", "notes.md"},
	}
	for _, tt := range tests {
		if got := SourceRel(tt.root, tt.path); got != tt.want {
			t.Errorf("SourceRel(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}
