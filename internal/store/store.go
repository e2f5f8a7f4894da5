package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jamespassby/retail-dashboard-final/pkg/rank"
	"github.com/jamespassby/retail-dashboard-final/pkg/score"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested brand does not exist.
var ErrNotFound = errors.New("not found")

// Import records one load of the brand dataset.
type Import struct {
	ID         string    `db:"id" json:"id"`
	Source     string    `db:"source" json:"source"`
	BrandCount int       `db:"brand_count" json:"brand_count"`
	ImportedAt time.Time `db:"imported_at" json:"imported_at"`
}

// Snapshot is a brand's ranking as of one import.
type Snapshot struct {
	ImportID      string    `db:"import_id" json:"import_id"`
	ImportedAt    time.Time `db:"imported_at" json:"imported_at"`
	BrandName     string    `db:"brand_name" json:"brand_name"`
	CurrentRank   *int      `db:"current_rank" json:"current_rank"`
	PreviousRank  *int      `db:"previous_rank" json:"previous_rank"`
	RankChange    *int      `db:"rank_change" json:"rank_change"`
	CurrentTotal  *int      `db:"current_total" json:"current_total"`
	CurrentGrowth *int      `db:"current_growth" json:"current_growth"`
	CurrentHeat   *int      `db:"current_heat" json:"current_heat"`
}

// Store is the persistence interface.
type Store interface {
	SaveImport(ctx context.Context, source string, brands []score.BrandMetrics, rows []rank.Row) (Import, error)
	LatestImport(ctx context.Context) (Import, error)
	ListImports(ctx context.Context, limit int) ([]Import, error)

	ListBrands(ctx context.Context) ([]score.BrandMetrics, error)
	GetBrand(ctx context.Context, name string) (score.BrandMetrics, error)

	RankHistory(ctx context.Context, brand string, limit int) ([]Snapshot, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// brandRow is the storage shape of score.BrandMetrics; metric arrays are
// kept as JSON text with gaps written as null.
type brandRow struct {
	Name        string    `db:"name"`
	ImportID    string    `db:"import_id"`
	Position    int       `db:"position"`
	TopCategory string    `db:"top_category"`
	SubCategory string    `db:"sub_category"`
	Logo        string    `db:"logo"`
	PlaceCount  int       `db:"place_count"`
	VisitsYoY   string    `db:"visits_yoy"`
	SpendYoY    string    `db:"spend_yoy"`
	TxnsYoY     string    `db:"txns_yoy"`
	VisitsIndex string    `db:"visits_index"`
	SpendIndex  string    `db:"spend_index"`
	TxnsIndex   string    `db:"txns_index"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func encodeValues(v score.Values) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toBrandRow(m score.BrandMetrics, importID string, position int, now time.Time) (brandRow, error) {
	row := brandRow{
		Name:        m.BrandName,
		ImportID:    importID,
		Position:    position,
		TopCategory: m.TopCategory,
		SubCategory: m.SubCategory,
		Logo:        m.Logo,
		PlaceCount:  m.PlaceCount,
		UpdatedAt:   now,
	}
	fields := []struct {
		dst *string
		v   score.Values
	}{
		{&row.VisitsYoY, m.VisitsYoY},
		{&row.SpendYoY, m.SpendYoY},
		{&row.TxnsYoY, m.TxnsYoY},
		{&row.VisitsIndex, m.VisitsIndex},
		{&row.SpendIndex, m.SpendIndex},
		{&row.TxnsIndex, m.TxnsIndex},
	}
	for _, f := range fields {
		enc, err := encodeValues(f.v)
		if err != nil {
			return brandRow{}, fmt.Errorf("encode metrics for %s: %w", m.BrandName, err)
		}
		*f.dst = enc
	}
	return row, nil
}

func (r brandRow) metrics() (score.BrandMetrics, error) {
	m := score.BrandMetrics{
		BrandName:   r.Name,
		TopCategory: r.TopCategory,
		SubCategory: r.SubCategory,
		Logo:        r.Logo,
		PlaceCount:  r.PlaceCount,
	}
	fields := []struct {
		dst *score.Values
		raw string
	}{
		{&m.VisitsYoY, r.VisitsYoY},
		{&m.SpendYoY, r.SpendYoY},
		{&m.TxnsYoY, r.TxnsYoY},
		{&m.VisitsIndex, r.VisitsIndex},
		{&m.SpendIndex, r.SpendIndex},
		{&m.TxnsIndex, r.TxnsIndex},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return score.BrandMetrics{}, fmt.Errorf("decode metrics for %s: %w", r.Name, err)
		}
	}
	return m, nil
}

// SaveImport records an import, upserts every named brand, removes brands the
// dataset no longer carries and stores the ranking snapshot in a single
// transaction. Snapshots of removed brands are kept.
func (s *SQLiteStore) SaveImport(ctx context.Context, source string, brands []score.BrandMetrics, rows []rank.Row) (Import, error) {
	now := time.Now().UTC()
	imp := Import{
		ID:         uuid.NewString(),
		Source:     source,
		BrandCount: len(rows),
		ImportedAt: now,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO imports (id, source, brand_count, imported_at)
		VALUES (:id, :source, :brand_count, :imported_at)
	`, imp); err != nil {
		return Import{}, fmt.Errorf("insert import: %w", err)
	}

	for i, m := range brands {
		if strings.TrimSpace(m.BrandName) == "" {
			continue
		}
		row, err := toBrandRow(m, imp.ID, i, now)
		if err != nil {
			return Import{}, err
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO brands (name, import_id, position, top_category, sub_category, logo, place_count,
				visits_yoy, spend_yoy, txns_yoy, visits_index, spend_index, txns_index, updated_at)
			VALUES (:name, :import_id, :position, :top_category, :sub_category, :logo, :place_count,
				:visits_yoy, :spend_yoy, :txns_yoy, :visits_index, :spend_index, :txns_index, :updated_at)
			ON CONFLICT(name) DO UPDATE SET
				import_id = excluded.import_id,
				position = excluded.position,
				top_category = excluded.top_category,
				sub_category = excluded.sub_category,
				logo = excluded.logo,
				place_count = excluded.place_count,
				visits_yoy = excluded.visits_yoy,
				spend_yoy = excluded.spend_yoy,
				txns_yoy = excluded.txns_yoy,
				visits_index = excluded.visits_index,
				spend_index = excluded.spend_index,
				txns_index = excluded.txns_index,
				updated_at = excluded.updated_at
		`, row); err != nil {
			return Import{}, fmt.Errorf("upsert brand %s: %w", m.BrandName, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM brands WHERE import_id != ?", imp.ID); err != nil {
		return Import{}, fmt.Errorf("remove dropped brands: %w", err)
	}

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rank_snapshots (import_id, brand_name, current_rank, previous_rank,
				rank_change, current_total, current_growth, current_heat)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, imp.ID, r.BrandName, r.CurrentRank, r.PreviousRank,
			r.RankChange, r.CurrentTotal, r.CurrentGrowth, r.CurrentHeat); err != nil {
			return Import{}, fmt.Errorf("insert snapshot %s: %w", r.BrandName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit import: %w", err)
	}
	return imp, nil
}

// LatestImport returns the most recent import, or ErrNotFound when nothing
// has been imported yet.
func (s *SQLiteStore) LatestImport(ctx context.Context) (Import, error) {
	var imp Import
	err := s.db.GetContext(ctx, &imp,
		"SELECT id, source, brand_count, imported_at FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, fmt.Errorf("latest import: %w", ErrNotFound)
	}
	if err != nil {
		return Import{}, fmt.Errorf("latest import: %w", err)
	}
	return imp, nil
}

func (s *SQLiteStore) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 20
	}
	var imports []Import
	if err := s.db.SelectContext(ctx, &imports,
		"SELECT id, source, brand_count, imported_at FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT ?",
		limit); err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return imports, nil
}

// ListBrands returns the brands of the latest import in dataset order.
func (s *SQLiteStore) ListBrands(ctx context.Context) ([]score.BrandMetrics, error) {
	var rows []brandRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM brands ORDER BY position, name"); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	out := make([]score.BrandMetrics, 0, len(rows))
	for _, r := range rows {
		m, err := r.metrics()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// GetBrand looks a brand up by exact name, falling back to a
// case-insensitive match.
func (s *SQLiteStore) GetBrand(ctx context.Context, name string) (score.BrandMetrics, error) {
	var row brandRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM brands WHERE name = ? COLLATE NOCASE ORDER BY name = ? DESC LIMIT 1",
		name, name)
	if errors.Is(err, sql.ErrNoRows) {
		return score.BrandMetrics{}, fmt.Errorf("get brand %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return score.BrandMetrics{}, fmt.Errorf("get brand %s: %w", name, err)
	}
	return row.metrics()
}

// RankHistory returns the brand's snapshots, newest first.
func (s *SQLiteStore) RankHistory(ctx context.Context, brand string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	var snaps []Snapshot
	err := s.db.SelectContext(ctx, &snaps, `
		SELECT s.import_id, i.imported_at, s.brand_name, s.current_rank, s.previous_rank,
			s.rank_change, s.current_total, s.current_growth, s.current_heat
		FROM rank_snapshots s
		JOIN imports i ON i.id = s.import_id
		WHERE s.brand_name = ?
		ORDER BY i.imported_at DESC, s.id DESC
		LIMIT ?
	`, brand, limit)
	if err != nil {
		return nil, fmt.Errorf("rank history %s: %w", brand, err)
	}
	return snaps, nil
}
