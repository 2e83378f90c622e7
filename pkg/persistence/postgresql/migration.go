package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'archived')),
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_tenant_status ON workflows(tenant_id, status);
		`,
		2: `
			CREATE TABLE workflow_executions (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				workflow_id VARCHAR(255) NOT NULL REFERENCES workflows(id),
				session_id VARCHAR(255) NOT NULL,
				contact_id VARCHAR(255) NOT NULL,
				current_node_id VARCHAR(255),
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'waiting', 'completed', 'error', 'expired')),
				context JSONB NOT NULL DEFAULT '{}',
				interaction_count INT NOT NULL DEFAULT 0,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE,
				error TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_executions_status ON workflow_executions(status);
			CREATE INDEX idx_executions_updated_at ON workflow_executions(updated_at);

			-- Backstop for the engine-enforced single-active-execution
			-- invariant per conversation.
			CREATE UNIQUE INDEX idx_executions_active_conversation
				ON workflow_executions(tenant_id, session_id, contact_id)
				WHERE status IN ('running', 'waiting');
		`,
	}
}
