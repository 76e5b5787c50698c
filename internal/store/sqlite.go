package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/pkg/utils"
)

// SQLiteStore persists knowledge units in SQLite and mirrors their embeddings
// in memory for brute-force cosine search. The mirror is rebuilt from the
// database on open, so the process can restart without re-embedding.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger

	mu      sync.RWMutex
	ids     []string
	vectors [][]float32
	byID    map[string]int
}

// NewSQLiteStore opens or creates a SQLite database at dbPath, initializes the
// schema, and loads all stored embeddings into the in-memory index. Parent
// directories are created if they do not exist.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		byID:   make(map[string]int),
	}
	if err := s.loadVectors(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	logger.Info("store opened", zap.String("path", dbPath), zap.Int("units", len(s.ids)))
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_units (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		metadata TEXT,
		embedding BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) loadVectors() error {
	rows, err := s.db.Query(`SELECT id, embedding FROM knowledge_units`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		vec := bytesToFloat32Slice(blob)
		s.byID[id] = len(s.ids)
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vec)
	}
	return rows.Err()
}

// Upsert inserts the unit or overwrites the existing row with the same id.
// The embedding is normalized before storage so Query can use inner product.
func (s *SQLiteStore) Upsert(ctx context.Context, unit models.KnowledgeUnit) error {
	if unit.ID == "" {
		return fmt.Errorf("unit id must not be empty")
	}
	if len(unit.Embedding) == 0 {
		return fmt.Errorf("unit %s has no embedding", unit.ID)
	}
	metadataJSON, err := json.Marshal(unit.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	vec := make([]float32, len(unit.Embedding))
	copy(vec, unit.Embedding)
	utils.NormalizeL2(vec)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO knowledge_units (id, text, metadata, embedding, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   text = excluded.text,
		   metadata = excluded.metadata,
		   embedding = excluded.embedding,
		   updated_at = CURRENT_TIMESTAMP`,
		unit.ID, unit.Text, string(metadataJSON), float32SliceToBytes(vec),
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byID[unit.ID]; ok {
		s.vectors[i] = vec
	} else {
		s.byID[unit.ID] = len(s.ids)
		s.ids = append(s.ids, unit.ID)
		s.vectors = append(s.vectors, vec)
	}
	return nil
}

// Query returns up to topK hits ordered by ascending cosine distance.
// The query embedding is normalized before scoring.
func (s *SQLiteStore) Query(ctx context.Context, embedding []float32, topK int) ([]models.SearchHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	q := make([]float32, len(embedding))
	copy(q, embedding)
	utils.NormalizeL2(q)

	type scored struct {
		id       string
		distance float64
	}

	s.mu.RLock()
	scores := make([]scored, 0, len(s.ids))
	for i, vec := range s.vectors {
		scores = append(scores, scored{id: s.ids[i], distance: CosineDistance(q, vec)})
	}
	s.mu.RUnlock()

	if len(scores) == 0 {
		return nil, nil
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].distance < scores[j].distance })
	if topK > len(scores) {
		topK = len(scores)
	}

	hits := make([]models.SearchHit, 0, topK)
	for _, sc := range scores[:topK] {
		hit, err := s.fetchHit(ctx, sc.id)
		if err != nil {
			return nil, err
		}
		hit.Distance = sc.distance
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *SQLiteStore) fetchHit(ctx context.Context, id string) (models.SearchHit, error) {
	var hit models.SearchHit
	var metadataJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, metadata FROM knowledge_units WHERE id = ?`, id,
	).Scan(&hit.ID, &hit.Text, &metadataJSON)
	if err != nil {
		return hit, fmt.Errorf("failed to load unit %s: %w", id, err)
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &hit.Metadata); err != nil {
			return hit, fmt.Errorf("failed to unmarshal metadata for %s: %w", id, err)
		}
	}
	return hit, nil
}

// Count returns the number of stored knowledge units.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_units`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
