package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create flow_queue table
			CREATE TABLE flow_queue (
				id UUID PRIMARY KEY,
				owner_id VARCHAR(255) NOT NULL DEFAULT '',
				flow_id VARCHAR(255) NOT NULL,
				lead_id VARCHAR(255) NOT NULL,
				list_id VARCHAR(255),
				next_node_id VARCHAR(255) NOT NULL,
				run_at TIMESTAMP WITH TIME ZONE NOT NULL,
				status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'processing', 'done', 'failed')),
				attempts INT NOT NULL DEFAULT 0,
				error TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				processed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_flow_queue_due ON flow_queue(run_at, id) WHERE status = 'pending';
			CREATE INDEX idx_flow_queue_lead_id ON flow_queue(lead_id);
			CREATE INDEX idx_flow_queue_processing ON flow_queue(updated_at) WHERE status = 'processing';

			-- At most one pending job per flow, lead and node
			CREATE UNIQUE INDEX idx_flow_queue_pending_key
				ON flow_queue(flow_id, lead_id, next_node_id)
				WHERE status = 'pending';
		`,
		2: `
			-- Create lead_activities table
			CREATE TABLE IF NOT EXISTS lead_activities (
				id BIGSERIAL PRIMARY KEY,
				lead_id VARCHAR(255) NOT NULL,
				owner_id VARCHAR(255) NOT NULL DEFAULT '',
				type VARCHAR(50) NOT NULL,
				message TEXT NOT NULL DEFAULT '',
				meta JSONB DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_lead_activities_lead_id ON lead_activities(lead_id);
			CREATE INDEX IF NOT EXISTS idx_lead_activities_created_at ON lead_activities(created_at);
		`,
	}
}
