package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

var testTables = []string{
	"flow_queue", "lead_activities", "leads", "automation_flows", "automations", "flows", "schema_migrations",
}

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range testTables {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("leadflow_test"),
			postgres.WithUsername("leadflow"),
			postgres.WithPassword("leadflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		require.NoError(t, db.Close())
		require.NoError(t, p.Close(ctx))

		cancel()
	})

	return p, ctx, db
}

func newJob(flowID, leadID, nodeID string, runAt time.Time) *models.QueueJob {
	return &models.QueueJob{
		OwnerID:    "owner-1",
		FlowID:     flowID,
		LeadID:     leadID,
		NextNodeID: nodeID,
		RunAt:      runAt,
	}
}

func TestNewPersistence_Migrations(t *testing.T) {
	p, ctx, db := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))

	for _, table := range []string{"flow_queue", "lead_activities", "schema_migrations"} {
		var exists bool

		err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestQueueRepository_EnqueueIsIdempotent(t *testing.T) {
	p, ctx, db := setupTestDB(t)
	queue := p.QueueRepository()
	now := time.Now().UTC()

	created, err := queue.Enqueue(ctx, newJob("flow-1", "lead-1", "node-b", now))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = queue.Enqueue(ctx, newJob("flow-1", "lead-1", "node-b", now))
	require.NoError(t, err)
	assert.False(t, created)

	var pending int

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flow_queue
		WHERE flow_id = 'flow-1' AND lead_id = 'lead-1' AND next_node_id = 'node-b' AND status = 'pending'`).Scan(&pending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	// Another lead or node is a different key.
	created, err = queue.Enqueue(ctx, newJob("flow-1", "lead-2", "node-b", now))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestQueueRepository_EnqueueAfterCompletion(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	queue := p.QueueRepository()
	now := time.Now().UTC()

	job := newJob("flow-1", "lead-1", "node-a", now)
	_, err := queue.Enqueue(ctx, job)
	require.NoError(t, err)

	claimed, err := queue.Claim(ctx, job.ID, now)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, queue.Complete(ctx, job.ID, now))

	created, err := queue.Enqueue(ctx, newJob("flow-1", "lead-1", "node-a", now))
	require.NoError(t, err)
	assert.True(t, created, "only pending jobs take part in deduplication")
}

func TestQueueRepository_ClaimOnlyOnce(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	queue := p.QueueRepository()
	now := time.Now().UTC()

	job := newJob("flow-1", "lead-1", "node-a", now)
	_, err := queue.Enqueue(ctx, job)
	require.NoError(t, err)

	claimed, err := queue.Claim(ctx, job.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = queue.Claim(ctx, job.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed)

	stored, err := queue.JobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
}

func TestQueueRepository_DueJobsOrderAndLimit(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	queue := p.QueueRepository()
	now := time.Now().UTC().Truncate(time.Second)

	late := newJob("flow-1", "lead-1", "a", now.Add(-time.Minute))
	early := newJob("flow-1", "lead-2", "a", now.Add(-time.Hour))
	future := newJob("flow-1", "lead-3", "a", now.Add(time.Hour))

	for _, job := range []*models.QueueJob{late, early, future} {
		_, err := queue.Enqueue(ctx, job)
		require.NoError(t, err)
	}

	jobs, err := queue.DueJobs(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, early.ID, jobs[0].ID)
	assert.Equal(t, late.ID, jobs[1].ID)

	jobs, err = queue.DueJobs(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, early.ID, jobs[0].ID)
}

func TestQueueRepository_CompleteAndFail(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	queue := p.QueueRepository()
	now := time.Now().UTC()

	done := newJob("flow-1", "lead-1", "a", now)
	failed := newJob("flow-1", "lead-1", "b", now)

	for _, job := range []*models.QueueJob{done, failed} {
		_, err := queue.Enqueue(ctx, job)
		require.NoError(t, err)
	}

	require.NoError(t, queue.Complete(ctx, done.ID, now))
	require.NoError(t, queue.Fail(ctx, failed.ID, "boom", now))

	stored, err := queue.JobByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusDone, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Nil(t, stored.Error)

	stored, err = queue.JobByID(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Equal(t, "boom", *stored.Error)

	err = queue.Complete(ctx, "8a6e0804-2bd0-4672-b79d-d97027f9071a", now)
	assert.True(t, persistence.IsJobNotFound(err))

	_, err = queue.JobByID(ctx, "not-a-uuid")
	assert.True(t, persistence.IsJobNotFound(err))

	jobs, err := queue.JobsByLead(ctx, "lead-1")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestQueueRepository_RequeueStale(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	queue := p.QueueRepository()
	now := time.Now().UTC()

	stale := newJob("flow-1", "lead-1", "a", now)
	blocked := newJob("flow-1", "lead-2", "a", now)

	for _, job := range []*models.QueueJob{stale, blocked} {
		_, err := queue.Enqueue(ctx, job)
		require.NoError(t, err)

		claimed, err := queue.Claim(ctx, job.ID, now.Add(-time.Hour))
		require.NoError(t, err)
		require.True(t, claimed)
	}

	// A newer pending job for the same key keeps the stale one where it is.
	_, err := queue.Enqueue(ctx, newJob("flow-1", "lead-2", "a", now))
	require.NoError(t, err)

	requeued, err := queue.RequeueStale(ctx, now.Add(-30*time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	stored, err := queue.JobByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, stored.Status)

	stored, err = queue.JobByID(ctx, blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, stored.Status)
}

func TestFlowLoaders(t *testing.T) {
	p, ctx, db := setupTestDB(t)
	loaders := p.FlowLoaders()
	require.Len(t, loaders, 3)

	t.Run("missing tables are not errors", func(t *testing.T) {
		for _, loader := range loaders {
			_, found, err := loader.TryLoad(ctx, "flow-1")
			require.NoError(t, err, loader.Name())
			assert.False(t, found, loader.Name())
		}
	})

	_, err := db.ExecContext(ctx, `
		CREATE TABLE automations (id TEXT PRIMARY KEY, owner_id TEXT, definition TEXT);
		INSERT INTO automations VALUES ('flow-1', 'owner-1', '{"reactflow":{"nodes":[{"id":"a","type":"delay"}],"edges":[]}}');
		INSERT INTO automations VALUES ('flow-2', 'owner-1', 'not json');
		CREATE TABLE flows (id UUID PRIMARY KEY, owner_id TEXT, graph JSONB);
		INSERT INTO flows VALUES ('a3bb189e-8bf9-3888-9912-ace4e6543002', 'owner-2', '{"nodes":[],"edges":[]}');
	`)
	require.NoError(t, err)

	t.Run("string document is parsed", func(t *testing.T) {
		doc, found, err := loaders[1].TryLoad(ctx, "flow-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "owner-1", doc.OwnerID)
		assert.Contains(t, doc.Raw, "reactflow")
	})

	t.Run("unparseable document is not found", func(t *testing.T) {
		_, found, err := loaders[1].TryLoad(ctx, "flow-2")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("uuid keyed table tolerates non uuid ids", func(t *testing.T) {
		_, found, err := loaders[2].TryLoad(ctx, "flow-1")
		require.NoError(t, err)
		assert.False(t, found)

		doc, found, err := loaders[2].TryLoad(ctx, "a3bb189e-8bf9-3888-9912-ace4e6543002")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "owner-2", doc.OwnerID)
	})
}

func TestLeadRepository(t *testing.T) {
	p, ctx, db := setupTestDB(t)
	leads := p.LeadRepository()

	_, err := leads.LeadByID(ctx, "lead-1")
	assert.True(t, persistence.IsLeadNotFound(err), "missing leads table reads as lead not found")

	_, err = db.ExecContext(ctx, `
		CREATE TABLE leads (id TEXT PRIMARY KEY, owner_id TEXT, email TEXT, name TEXT, phone TEXT);
		INSERT INTO leads VALUES ('lead-1', 'owner-1', 'ada@example.com', 'Ada', NULL);
	`)
	require.NoError(t, err)

	lead, err := leads.LeadByID(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", lead.Email)
	assert.Equal(t, "Ada", lead.Name)
	assert.Empty(t, lead.Phone)

	_, err = leads.LeadByID(ctx, "lead-2")
	assert.True(t, persistence.IsLeadNotFound(err))
}

func TestActivityRepository(t *testing.T) {
	p, ctx, db := setupTestDB(t)
	activities := p.ActivityRepository()

	record := &models.ActivityRecord{
		LeadID:  "lead-1",
		OwnerID: "owner-1",
		Type:    models.ActivityEmailSent,
		Message: "Email sent",
		Meta:    map[string]any{"message_id": "abc"},
	}

	require.NoError(t, activities.Append(ctx, record))

	var meta string

	err := db.QueryRowContext(ctx, `SELECT meta::text FROM lead_activities WHERE lead_id = 'lead-1'`).Scan(&meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message_id":"abc"}`, meta)

	_, err = db.ExecContext(ctx, `DROP TABLE lead_activities`)
	require.NoError(t, err)

	err = activities.Append(ctx, record)
	assert.True(t, persistence.IsTableNotFound(err))
}
