package definition

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MissingDefinitionRow is a row in the defined table lacking a
// definition.
type MissingDefinitionRow struct {
	ID           int64          `db:"id"`
	Term         string         `db:"term"`
	PartOfSpeech sql.NullString `db:"part_of_speech"`
}

// FilledRow identifies a (term, part of speech) pair that already has a
// definition.
type FilledRow struct {
	TermLower    string         `db:"term_lower"`
	PartOfSpeech sql.NullString `db:"part_of_speech"`
}

// UpdateAction fills the definition of an existing row.
type UpdateAction struct {
	RowID            int64
	Term             string
	PartOfSpeech     string
	DefinitionText   string
	DefinitionSource string
}

// InsertAction adds a row for an additional part of speech of a term.
type InsertAction struct {
	Term             string
	PartOfSpeech     string
	DefinitionText   string
	DefinitionSource string
}

// DefinedRepository defines operations on the defined table used by the
// fill pipeline.
type DefinedRepository interface {
	FindMissingDefinitions(ctx context.Context, limit int) ([]MissingDefinitionRow, error)
	DistinctPartsOfSpeech(ctx context.Context) ([]string, error)
	FilledRows(ctx context.Context) ([]FilledRow, error)
	UpdateDefinition(ctx context.Context, action UpdateAction) error
	InsertDefinition(ctx context.Context, action InsertAction) error
}

// DBDefinedRepository implements DefinedRepository using MySQL.
type DBDefinedRepository struct {
	db *sqlx.DB
}

var _ DefinedRepository = (*DBDefinedRepository)(nil)

// NewDBDefinedRepository creates a new DBDefinedRepository.
func NewDBDefinedRepository(db *sqlx.DB) *DBDefinedRepository {
	return &DBDefinedRepository{db: db}
}

// FindMissingDefinitions returns rows with a NULL or blank definition,
// oldest first. A non-positive limit returns all of them.
func (r *DBDefinedRepository) FindMissingDefinitions(ctx context.Context, limit int) ([]MissingDefinitionRow, error) {
	query := `SELECT id, term, part_of_speech FROM defined
		WHERE definition IS NULL OR TRIM(definition) = ''
		ORDER BY id ASC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []MissingDefinitionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(missing definitions) > %w", err)
	}
	return rows, nil
}

// DistinctPartsOfSpeech returns every non-blank part-of-speech label
// currently stored in the defined table.
func (r *DBDefinedRepository) DistinctPartsOfSpeech(ctx context.Context) ([]string, error) {
	var labels []string
	err := r.db.SelectContext(ctx, &labels,
		`SELECT DISTINCT part_of_speech FROM defined
		WHERE part_of_speech IS NOT NULL AND TRIM(part_of_speech) != ''`)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(distinct part_of_speech) > %w", err)
	}
	return labels, nil
}

// FilledRows returns the (lower-cased term, part of speech) pairs that
// already carry a definition.
func (r *DBDefinedRepository) FilledRows(ctx context.Context) ([]FilledRow, error) {
	var rows []FilledRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT LOWER(term) AS term_lower, part_of_speech FROM defined
		WHERE definition IS NOT NULL AND TRIM(definition) != ''`)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(filled rows) > %w", err)
	}
	return rows, nil
}

// UpdateDefinition fills in an existing row.
func (r *DBDefinedRepository) UpdateDefinition(ctx context.Context, action UpdateAction) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE defined SET definition = ?, part_of_speech = ?, definition_source = ? WHERE id = ?",
		action.DefinitionText, action.PartOfSpeech, action.DefinitionSource, action.RowID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update defined) > %w", err)
	}
	return nil
}

// InsertDefinition adds a new row for an additional part of speech.
func (r *DBDefinedRepository) InsertDefinition(ctx context.Context, action InsertAction) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO defined (term, part_of_speech, definition, definition_source) VALUES (?, ?, ?, ?)",
		action.Term, action.PartOfSpeech, action.DefinitionText, action.DefinitionSource)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert defined) > %w", err)
	}
	return nil
}
