// Package postgresql provides PostgreSQL persistence for the flow queue, flows,
// leads and the activity log.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/sqlbase"
	"github.com/lib/pq"
)

const (
	// https://www.postgresql.org/docs/current/errcodes-appendix.html
	codeUndefinedTable  = "42P01"
	codeUndefinedColumn = "42703"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	queueRepo    *QueueRepository
	leadRepo     *LeadRepository
	activityRepo *ActivityRepository
	flowLoaders  []persistence.FlowLoader
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := newPersistence(database, logger)

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

func newPersistence(database *sql.DB, logger *slog.Logger) *Persistence {
	return &Persistence{
		db:           database,
		logger:       logger,
		queueRepo:    NewQueueRepository(database, logger),
		leadRepo:     NewLeadRepository(database),
		activityRepo: NewActivityRepository(database),
		flowLoaders:  DefaultFlowLoaders(database),
	}
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) QueueRepository() persistence.QueueRepository {
	return p.queueRepo
}

func (p *Persistence) LeadRepository() persistence.LeadRepository {
	return p.leadRepo
}

func (p *Persistence) ActivityRepository() persistence.ActivityRepository {
	return p.activityRepo
}

func (p *Persistence) FlowLoaders() []persistence.FlowLoader {
	return p.flowLoaders
}

// isSchemaMissing reports whether err is Postgres complaining about an
// unknown table or column.
func isSchemaMissing(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == codeUndefinedTable || pqErr.Code == codeUndefinedColumn
}
