package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/persistence"
)

// FlowLoader reads flow documents from one table/column pair.
type FlowLoader struct {
	db     *sql.DB
	table  string
	column string
}

// NewFlowLoader creates a loader for the given table and document column. The
// identifiers are trusted configuration, never user input.
func NewFlowLoader(db *sql.DB, table, column string) *FlowLoader {
	return &FlowLoader{db: db, table: table, column: column}
}

// DefaultFlowLoaders returns the known flow locations in probe order: the
// current automation_flows table first, then the two legacy layouts.
func DefaultFlowLoaders(db *sql.DB) []persistence.FlowLoader {
	return []persistence.FlowLoader{
		NewFlowLoader(db, "automation_flows", "flow_json"),
		NewFlowLoader(db, "automations", "definition"),
		NewFlowLoader(db, "flows", "graph"),
	}
}

// Name returns the location this loader reads from.
func (fl *FlowLoader) Name() string {
	return fl.table + "." + fl.column
}

// TryLoad reads the document for id. A missing table or column, a missing row,
// a NULL document and an unparseable document all count as not found here.
func (fl *FlowLoader) TryLoad(ctx context.Context, id string) (persistence.FlowDocument, bool, error) {
	query := fmt.Sprintf(
		`SELECT COALESCE(owner_id::text, ''), %s::text FROM %s WHERE id::text = $1 LIMIT 1`,
		pqQuote(fl.column), pqQuote(fl.table),
	)

	var (
		ownerID string
		raw     sql.NullString
	)

	err := fl.db.QueryRowContext(ctx, query, id).Scan(&ownerID, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isSchemaMissing(err) {
			return persistence.FlowDocument{}, false, nil
		}

		return persistence.FlowDocument{}, false, persistence.Unavailable("LoadFlow", id, err)
	}

	if !raw.Valid {
		return persistence.FlowDocument{}, false, nil
	}

	doc, err := graph.Decode(raw.String)
	if err != nil {
		return persistence.FlowDocument{}, false, nil
	}

	return persistence.FlowDocument{OwnerID: ownerID, Raw: doc}, true, nil
}

func pqQuote(identifier string) string {
	return `"` + identifier + `"`
}
