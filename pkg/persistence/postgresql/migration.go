package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create automations table
			CREATE TABLE automations (
				id UUID PRIMARY KEY,
				owner_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT false,
				steps JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				activated_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_automations_owner_id ON automations(owner_id);
			CREATE INDEX idx_automations_created_at ON automations(created_at);
			CREATE INDEX idx_automations_deleted_at ON automations(deleted_at);
		`,
		2: `
			-- Migration 2: lookup of active automations by the execution runtime
			CREATE INDEX idx_automations_active ON automations(owner_id)
				WHERE is_active AND deleted_at IS NULL;
		`,
	}
}
