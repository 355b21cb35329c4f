package episode

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
)

// StoreConfig configures the episode corpus store.
type StoreConfig struct {
	DatabasePath string
}

// SQLiteStore persists the episode corpus in SQLite. Channel columns are
// stored as a JSON payload per episode; provenance is stored alongside so
// lineage queries need no join.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// NewSQLiteStore opens (or creates) the corpus database.
func NewSQLiteStore(config StoreConfig) (*SQLiteStore, error) {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = ".data/corpus.db"
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %v", domain.ErrStoreInitFailed, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", domain.ErrStoreInitFailed, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			sample_time REAL NOT NULL,
			samples INTEGER NOT NULL,
			channels BLOB NOT NULL,
			provenance TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_episodes_source ON episodes(source);
		CREATE INDEX IF NOT EXISTS idx_episodes_name ON episodes(name);
		CREATE INDEX IF NOT EXISTS idx_episodes_created ON episodes(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: failed to create schema: %v", domain.ErrStoreInitFailed, err)
	}
	return nil
}

// Save inserts or replaces an episode.
func (s *SQLiteStore) Save(ctx context.Context, e *domain.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	if err := e.Validate(); err != nil {
		return err
	}

	channelsJSON, err := json.Marshal(e.Channels)
	if err != nil {
		return fmt.Errorf("serialize channels: %w", err)
	}
	var provenanceJSON []byte
	if e.Provenance != nil {
		provenanceJSON, err = json.Marshal(e.Provenance)
		if err != nil {
			return fmt.Errorf("serialize provenance: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO episodes (id, name, source, sample_time, samples, channels, provenance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, string(e.Source), e.SampleTime, e.Len(), channelsJSON, provenanceJSON, e.CreatedAt.UnixMilli())
	return err
}

// Get loads one episode by identifier.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, source, sample_time, channels, provenance, created_at
		FROM episodes WHERE id = ?
	`, id)
	e, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", domain.ErrEpisodeNotFound, id)
	}
	return e, err
}

// List returns episodes matching the query, newest first.
func (s *SQLiteStore) List(ctx context.Context, query domain.Query) ([]*domain.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	sqlQuery := `
		SELECT id, name, source, sample_time, channels, provenance, created_at
		FROM episodes WHERE 1=1
	`
	args := make([]interface{}, 0)

	if query.Source != "" {
		sqlQuery += " AND source = ?"
		args = append(args, string(query.Source))
	}
	if query.Name != "" {
		sqlQuery += " AND name = ?"
		args = append(args, query.Name)
	}
	sqlQuery += " ORDER BY created_at DESC"
	if query.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, query.Limit)
	} else if query.Offset > 0 {
		// SQLite rejects OFFSET without LIMIT; -1 means unlimited.
		sqlQuery += " LIMIT -1"
	}
	if query.Offset > 0 {
		sqlQuery += " OFFSET ?"
		args = append(args, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	episodes := make([]*domain.Episode, 0)
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// Lineage returns the stored parents of an augmented episode, in provenance
// order. Recorded episodes have an empty lineage.
func (s *SQLiteStore) Lineage(ctx context.Context, id string) ([]*domain.Episode, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Provenance == nil {
		return nil, nil
	}
	parents := make([]*domain.Episode, 0, len(e.Provenance.Parents))
	for _, pid := range e.Provenance.Parents {
		p, err := s.Get(ctx, pid)
		if err != nil {
			return nil, err
		}
		parents = append(parents, p)
	}
	return parents, nil
}

// Delete removes an episode from the corpus.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM episodes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", domain.ErrEpisodeNotFound, id)
	}
	return nil
}

// Count returns the number of episodes in the corpus.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, domain.ErrStoreClosed
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episodes`).Scan(&count)
	return count, err
}

// Vacuum reclaims unused space in the database.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row rowScanner) (*domain.Episode, error) {
	var (
		id             string
		name           string
		source         string
		sampleTime     float64
		channelsJSON   []byte
		provenanceJSON sql.NullString
		createdMs      int64
	)
	if err := row.Scan(&id, &name, &source, &sampleTime, &channelsJSON, &provenanceJSON, &createdMs); err != nil {
		return nil, err
	}

	e := &domain.Episode{
		ID:         id,
		Name:       name,
		Source:     domain.Source(source),
		SampleTime: sampleTime,
		CreatedAt:  time.UnixMilli(createdMs),
	}
	if err := json.Unmarshal(channelsJSON, &e.Channels); err != nil {
		return nil, fmt.Errorf("deserialize channels: %w", err)
	}
	if provenanceJSON.Valid && provenanceJSON.String != "" {
		var p domain.Provenance
		if err := json.Unmarshal([]byte(provenanceJSON.String), &p); err == nil {
			e.Provenance = &p
		}
	}
	return e, nil
}
