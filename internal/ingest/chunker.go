// Package ingest turns knowledge sources into stored, embedded knowledge units.
package ingest

import (
	"strings"
	"unicode/utf8"
)

// Chunk is one embeddable window of a source document. SectionIndex counts
// sections as they appear in the document, including sections later dropped
// for being too short, so chunk ids stay stable when a short section grows.
type Chunk struct {
	Text         string
	SectionIndex int
	ChunkIndex   int
}

// Chunker splits markdown-style documents into sections on "## " headings,
// then splits long sections into overlapping rune windows.
type Chunker struct {
	chunkSize     int
	chunkOverlap  int
	minSectionLen int
}

// NewChunker creates a chunker with the given window size and overlap (in runes)
// and the minimum section length below which sections are skipped.
func NewChunker(chunkSize, chunkOverlap, minSectionLen int) *Chunker {
	return &Chunker{
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
		minSectionLen: minSectionLen,
	}
}

// SplitSections splits text on lines beginning with "## ". Each heading starts
// a new section and stays attached to the content that follows it. Text before
// the first heading forms the leading section.
func SplitSections(text string) []string {
	var sections []string
	start := 0
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '\n' && strings.HasPrefix(text[i+1:], "## ") {
			sections = append(sections, text[start:i])
			start = i + 1
		}
	}
	sections = append(sections, text[start:])
	return sections
}

// Chunk splits the document into embeddable chunks. Sections whose trimmed
// length is below the minimum are skipped but still consume a section index.
func (c *Chunker) Chunk(text string) []Chunk {
	var chunks []Chunk
	for secIdx, section := range SplitSections(text) {
		section = strings.TrimSpace(section)
		if utf8.RuneCountInString(section) < c.minSectionLen {
			continue
		}
		for chunkIdx, window := range c.windows(section) {
			chunks = append(chunks, Chunk{
				Text:         window,
				SectionIndex: secIdx,
				ChunkIndex:   chunkIdx,
			})
		}
	}
	return chunks
}

// windows slices the section into rune windows of chunkSize advancing by
// chunkSize-chunkOverlap. A section that fits in one window yields itself.
func (c *Chunker) windows(section string) []string {
	runes := []rune(section)
	if len(runes) <= c.chunkSize {
		return []string{section}
	}
	stride := c.chunkSize - c.chunkOverlap
	if stride <= 0 {
		stride = 1
	}
	var out []string
	for start := 0; ; start += stride {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end >= len(runes) {
			break
		}
	}
	return out
}
