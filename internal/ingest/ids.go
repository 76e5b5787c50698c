package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStem returns the file name with its last extension removed, so rotated
// logs keep distinct stems ("log.jsonl.old" -> "log.jsonl").
func FileStem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// SourceRel returns the slash-separated path of a synced file relative to its
// root directory. Nested files keep their directory prefix, so same-named
// files in different subdirectories stay distinct in ids and source metadata.
// Falls back to the base name when path is not under root.
func SourceRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// MemoryChunkID is the deterministic id for a chunk of a memory document.
// Re-syncing the same file produces the same ids, so sync is an upsert.
func MemoryChunkID(stem string, sectionIndex, chunkIndex int) string {
	return fmt.Sprintf("memory_%s_%d_%d", stem, sectionIndex, chunkIndex)
}

// SessionExchangeID is the deterministic id for an exchange extracted from a
// session log, keyed by the log's stem and the exchange position within it.
func SessionExchangeID(stem string, position int) string {
	return fmt.Sprintf("session_%s_%d", stem, position)
}

// ManualID generates an id for a manually ingested document without one.
func ManualID() string {
	return "doc_" + uuid.New().String()[:8]
}
