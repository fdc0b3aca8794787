package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/distrocompare/pkg/catalog"
)

// ErrNoSnapshot is returned when the database holds no saved catalog.
var ErrNoSnapshot = errors.New("no catalog snapshot saved")

// CatalogRepository saves and loads the catalog: the template document, the
// descriptions document and every record, in store order.
type CatalogRepository interface {
	// SaveSnapshot replaces the stored catalog.
	SaveSnapshot(ctx context.Context, snap *catalog.Snapshot) error

	// LoadSnapshot returns the stored catalog or ErrNoSnapshot.
	LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error)

	// RecordCount returns the number of stored records.
	RecordCount(ctx context.Context) (int, error)
}

// Compile-time interface guard.
var _ CatalogRepository = (*SQLiteCatalogRepository)(nil)

// SQLiteCatalogRepository implements CatalogRepository using SQLite.
type SQLiteCatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository runs the catalog migrations and returns a repository.
func NewCatalogRepository(ctx context.Context, s *SQLiteStore) (*SQLiteCatalogRepository, error) {
	if err := s.Migrate(ctx, "catalog", catalogMigrations); err != nil {
		return nil, fmt.Errorf("catalog migrations: %w", err)
	}
	return &SQLiteCatalogRepository{db: s.DB()}, nil
}

type descriptionsDoc struct {
	Descriptions map[string]string `json:"descriptions"`
}

func (r *SQLiteCatalogRepository) SaveSnapshot(ctx context.Context, snap *catalog.Snapshot) error {
	if snap == nil || snap.Template == nil {
		return fmt.Errorf("save snapshot: template is required")
	}
	desc, err := json.Marshal(descriptionsDoc{Descriptions: snap.Descriptions})
	if err != nil {
		return fmt.Errorf("encode descriptions: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_meta (id, template, descriptions, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			template = excluded.template,
			descriptions = excluded.descriptions,
			saved_at = excluded.saved_at`,
		string(snap.Template.Raw()), string(desc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save catalog meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO catalog_records (position, name, document) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i := range snap.Records {
		doc, err := json.Marshal(snap.Records[i])
		if err != nil {
			return fmt.Errorf("encode record %q: %w", snap.Records[i].Name, err)
		}
		if _, err := stmt.ExecContext(ctx, i, snap.Records[i].Name, string(doc)); err != nil {
			return fmt.Errorf("save record %q: %w", snap.Records[i].Name, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteCatalogRepository) LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	var (
		tmplDoc, descDoc string
		savedAt          time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT template, descriptions, saved_at FROM catalog_meta WHERE id = 1`,
	).Scan(&tmplDoc, &descDoc, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("load catalog meta: %w", err)
	}

	tmpl, err := catalog.ParseTemplate([]byte(tmplDoc))
	if err != nil {
		return nil, fmt.Errorf("stored template: %w", err)
	}
	desc, err := catalog.ParseDescriptions([]byte(descDoc))
	if err != nil {
		return nil, fmt.Errorf("stored descriptions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, document FROM catalog_records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		var name, doc string
		if err := rows.Scan(&name, &doc); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		rec, err := catalog.ParseRecord([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("stored record %q: %w", name, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snap := catalog.NewSnapshot(tmpl, records, desc)
	snap.LoadedAt = savedAt
	return snap, nil
}

func (r *SQLiteCatalogRepository) RecordCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// catalogMigrations defines the schema for the catalog tables.
var catalogMigrations = []Migration{
	{
		Version:     1,
		Description: "create catalog_meta and catalog_records tables",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE catalog_meta (
					id           INTEGER PRIMARY KEY CHECK (id = 1),
					template     TEXT NOT NULL,
					descriptions TEXT NOT NULL,
					saved_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
				CREATE TABLE catalog_records (
					position INTEGER PRIMARY KEY,
					name     TEXT NOT NULL UNIQUE,
					document TEXT NOT NULL
				)`)
			return err
		},
	},
}
