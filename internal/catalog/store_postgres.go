package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/lib/pq"
)

// PostgresStore is the database-backed Store. Snapshots land in a
// catalog_backups table instead of files, but the semantics mirror the
// JSON store: full snapshot before each mutation, retention-pruned.
type PostgresStore struct {
	db  *sql.DB
	log *log.Logger
}

func NewPostgresStore(db *sql.DB, logger *log.Logger) *PostgresStore {
	if logger == nil {
		logger = log.Default()
	}
	return &PostgresStore{db: db, log: logger}
}

// Connect opens and pings a Postgres connection for the store.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	return db, nil
}

func (s *PostgresStore) EnsureExists() {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalog_records (
			id          INTEGER PRIMARY KEY,
			title       TEXT NOT NULL,
			category    TEXT NOT NULL,
			file_path   TEXT NOT NULL DEFAULT '',
			poster      TEXT NOT NULL DEFAULT '',
			duration    TEXT NOT NULL DEFAULT '',
			year        TEXT NOT NULL DEFAULT '',
			rating      TEXT NOT NULL DEFAULT '',
			resolution  TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			genres      TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_backups (
			id       BIGSERIAL PRIMARY KEY,
			taken_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			snapshot JSONB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			s.log.Printf("catalog: ensure schema: %v", err)
		}
	}
}

func (s *PostgresStore) Backup() error {
	records, err := s.Read()
	if err != nil {
		return fmt.Errorf("snapshot read: %w", err)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("snapshot marshal: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO catalog_backups (snapshot) VALUES ($1)", data); err != nil {
		return fmt.Errorf("snapshot insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) PruneBackups(max int) {
	_, err := s.db.Exec(`
		DELETE FROM catalog_backups WHERE id NOT IN (
			SELECT id FROM catalog_backups ORDER BY taken_at DESC, id DESC LIMIT $1
		)`, max)
	if err != nil {
		s.log.Printf("catalog: prune backups: %v", err)
	}
}

func (s *PostgresStore) Read() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT id, title, category, file_path, poster, duration, year,
		       rating, resolution, description, genres
		FROM catalog_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var genres pq.StringArray
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Category, &rec.FilePath, &rec.Poster,
			&rec.Duration, &rec.Year, &rec.Rating, &rec.Resolution, &rec.Description, &genres); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Genres = []string(genres)
		if rec.Genres == nil {
			rec.Genres = []string{}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Write(records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM catalog_records"); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	for _, rec := range records {
		_, err := tx.Exec(`
			INSERT INTO catalog_records
				(id, title, category, file_path, poster, duration, year,
				 rating, resolution, description, genres)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			rec.ID, rec.Title, rec.Category, rec.FilePath, rec.Poster,
			rec.Duration, rec.Year, rec.Rating, rec.Resolution, rec.Description,
			pq.Array(rec.Genres))
		if err != nil {
			return fmt.Errorf("insert record %d: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}
