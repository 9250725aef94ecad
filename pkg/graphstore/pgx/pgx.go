// Package pgx implements GraphStorage on PostgreSQL. All upserts are
// INSERT .. ON CONFLICT merges on the natural composite key, so every
// pipeline stage can re-run against partial progress without duplicating
// nodes or edges.
package pgx

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a pgxpool-backed GraphStorage.
type Store struct {
	pool *pgxpool.Pool
}

var _ graphstore.GraphStorage = (*Store)(nil)

// New connects to the database. It does not migrate; callers run Migrate
// explicitly before the first write.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(s.pool)
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Store) ClearDocument(ctx context.Context, docID string) error {
	docTables := []string{
		"community_sections", "communities",
		"fact_entities", "fact_sections", "financial_facts",
		"section_periods", "entity_concepts", "doc_references",
		"relationships", "entity_mentions", "entities", "sections",
	}
	for _, table := range docTables {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table+" WHERE doc_id = $1", docID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	tables := []string{
		"community_sections", "communities",
		"fact_entities", "fact_sections", "financial_facts",
		"section_periods", "time_periods", "entity_concepts",
		"financial_concepts", "doc_references", "relationships",
		"entity_mentions", "entities", "sections",
	}
	for _, table := range tables {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
