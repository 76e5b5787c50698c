package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/ollama"
	"github.com/hyperjump/kioku/internal/store"
	"github.com/hyperjump/kioku/internal/transcript"
	"github.com/hyperjump/kioku/pkg/utils"
)

// Syncer walks the knowledge tree and upserts its content into the store.
// A mutex serializes Sync and IngestDocuments so only one writer touches the
// store at a time; concurrent searches are unaffected.
type Syncer struct {
	store     store.Store
	embedder  embedding.Embedder
	extractor Extractor
	chunker   *Chunker
	cfg       *config.KnowledgeConfig
	logger    *zap.Logger

	mu sync.Mutex
}

// Extractor is the minimal interface the syncer needs from the text extractor.
type Extractor interface {
	Extract(path string) (string, error)
}

// NewSyncer creates a syncer over the given collaborators.
func NewSyncer(st store.Store, embedder embedding.Embedder, extractor Extractor, cfg *config.KnowledgeConfig, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		store:     st,
		embedder:  embedder,
		extractor: extractor,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinSectionLength),
		cfg:       cfg,
		logger:    logger,
	}
}

// Sync walks the memory directory and session logs, upserting every derived
// knowledge unit. Deterministic ids make repeated syncs idempotent. Per-unit
// failures are logged and skipped; a total embedding outage aborts the pass.
// Returns the number of units upserted this pass and the store total after.
func (s *Syncer) Sync(ctx context.Context) (synced, total int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.syncMemory(ctx)
	synced += n
	if err != nil {
		return synced, 0, err
	}

	n, err = s.syncSessions(ctx)
	synced += n
	if err != nil {
		return synced, 0, err
	}

	total, err = s.store.Count(ctx)
	if err != nil {
		return synced, 0, fmt.Errorf("count after sync: %w", err)
	}
	s.logger.Info("sync complete", zap.Int("synced", synced), zap.Int("total", total))
	return synced, total, nil
}

func (s *Syncer) syncMemory(ctx context.Context) (int, error) {
	if _, err := os.Stat(s.cfg.MemoryDir); os.IsNotExist(err) {
		s.logger.Warn("memory directory missing, skipping", zap.String("dir", s.cfg.MemoryDir))
		return 0, nil
	}

	synced := 0
	err := filepath.WalkDir(s.cfg.MemoryDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !s.wantedExtension(path) {
			return nil
		}
		n, ferr := s.syncMemoryFile(ctx, path)
		synced += n
		return ferr
	})
	return synced, err
}

func (s *Syncer) wantedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range s.cfg.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (s *Syncer) syncMemoryFile(ctx context.Context, path string) (int, error) {
	text, err := s.extractor.Extract(path)
	if err != nil {
		s.logger.Warn("extract failed, skipping file", zap.String("path", path), zap.Error(err))
		return 0, nil
	}

	rel := SourceRel(s.cfg.MemoryDir, path)
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	metadata := map[string]string{
		"source": "memory/" + rel,
		"type":   models.SourceTypeMemory,
	}

	synced := 0
	for _, chunk := range s.chunker.Chunk(text) {
		unit := models.KnowledgeUnit{
			ID:       MemoryChunkID(stem, chunk.SectionIndex, chunk.ChunkIndex),
			Text:     chunk.Text,
			Metadata: metadata,
		}
		n, err := s.upsert(ctx, unit)
		synced += n
		if err != nil {
			return synced, err
		}
	}
	return synced, nil
}

func (s *Syncer) syncSessions(ctx context.Context) (int, error) {
	synced := 0
	for _, dir := range s.cfg.SessionDirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			s.logger.Warn("session directory missing, skipping", zap.String("dir", dir))
			continue
		}
		var paths []string
		for _, pattern := range []string{"*.jsonl", "*.jsonl.old"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return synced, err
			}
			paths = append(paths, matches...)
		}
		for _, path := range paths {
			n, err := s.syncSessionFile(ctx, path)
			synced += n
			if err != nil {
				return synced, err
			}
		}
	}
	return synced, nil
}

func (s *Syncer) syncSessionFile(ctx context.Context, path string) (int, error) {
	records, skipped, err := transcript.ReadLogFile(path)
	if err != nil {
		s.logger.Warn("read session log failed, skipping", zap.String("path", path), zap.Error(err))
		return 0, nil
	}
	if skipped > 0 {
		s.logger.Debug("skipped malformed log lines", zap.String("path", path), zap.Int("skipped", skipped))
	}

	name := filepath.Base(path)
	stem := FileStem(path)
	synced := 0
	for _, ex := range transcript.ExtractExchanges(records, transcript.ExtractOptions{}) {
		assistant := utils.TruncateRunes(ex.AssistantText, s.cfg.MaxAssistantChars)
		unit := models.KnowledgeUnit{
			ID:   SessionExchangeID(stem, ex.Position),
			Text: "User: " + ex.UserText + "\nAssistant: " + assistant,
			Metadata: map[string]string{
				"source":    "session/" + name,
				"type":      models.SourceTypeConversation,
				"timestamp": ex.Timestamp,
			},
		}
		n, err := s.upsert(ctx, unit)
		synced += n
		if err != nil {
			return synced, err
		}
	}
	return synced, nil
}

// upsert embeds and stores one unit. An unreachable embedding host aborts the
// whole pass; any other failure is logged and the unit skipped.
func (s *Syncer) upsert(ctx context.Context, unit models.KnowledgeUnit) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	vec, err := s.embedder.Embed(ctx, unit.Text)
	if err != nil {
		if errors.Is(err, ollama.ErrUnavailable) {
			return 0, fmt.Errorf("embedding host unavailable: %w", err)
		}
		s.logger.Warn("embed failed, skipping unit", zap.String("id", unit.ID), zap.Error(err))
		return 0, nil
	}
	unit.Embedding = vec
	if err := s.store.Upsert(ctx, unit); err != nil {
		s.logger.Warn("upsert failed, skipping unit", zap.String("id", unit.ID), zap.Error(err))
		return 0, nil
	}
	return 1, nil
}

// IngestDocuments embeds and stores ad-hoc documents. Missing ids are
// generated; missing metadata defaults to a manual source. Unlike Sync,
// failures surface immediately.
func (s *Syncer) IngestDocuments(ctx context.Context, documents []string, metadatas []map[string]string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingested := 0
	for i, doc := range documents {
		id := ""
		if i < len(ids) {
			id = ids[i]
		}
		if id == "" {
			id = ManualID()
		}
		metadata := map[string]string{"source": models.SourceTypeManual}
		if i < len(metadatas) && metadatas[i] != nil {
			metadata = metadatas[i]
		}

		vec, err := s.embedder.Embed(ctx, doc)
		if err != nil {
			return ingested, fmt.Errorf("embed document %d: %w", i, err)
		}
		unit := models.KnowledgeUnit{ID: id, Text: doc, Embedding: vec, Metadata: metadata}
		if err := s.store.Upsert(ctx, unit); err != nil {
			return ingested, fmt.Errorf("store document %d: %w", i, err)
		}
		ingested++
	}
	return ingested, nil
}
