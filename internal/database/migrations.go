package database

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// Migrations contains all database migrations
var Migrations = []Migration{
	{
		Version: 1,
		Up: `
			CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				email VARCHAR(255) UNIQUE NOT NULL,
				display_name VARCHAR(255) NOT NULL,
				role VARCHAR(50) NOT NULL DEFAULT 'freelancer',
				bio TEXT,
				hourly_rate NUMERIC(10,2),
				avatar_url TEXT,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
			CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
		`,
		Down: `
			DROP TABLE IF EXISTS users;
		`,
	},
	{
		Version: 2,
		Up: `
			CREATE TABLE IF NOT EXISTS projects (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				client_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				budget NUMERIC(12,2) NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'open',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);
			CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status, created_at DESC);
		`,
		Down: `
			DROP TABLE IF EXISTS projects;
		`,
	},
	{
		Version: 3,
		Up: `
			CREATE TABLE IF NOT EXISTS proposals (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				freelancer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				cover_letter TEXT NOT NULL,
				bid_amount NUMERIC(12,2) NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				rank_penalized BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
				UNIQUE(project_id, freelancer_id)
			);

			CREATE INDEX IF NOT EXISTS idx_proposals_project ON proposals(project_id);
			CREATE INDEX IF NOT EXISTS idx_proposals_freelancer ON proposals(freelancer_id);
		`,
		Down: `
			DROP TABLE IF EXISTS proposals;
		`,
	},
	{
		Version: 4,
		Up: `
			CREATE TABLE IF NOT EXISTS conversations (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				project_id UUID REFERENCES projects(id) ON DELETE SET NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations(created_at DESC);

			CREATE TABLE IF NOT EXISTS conversation_members (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
				UNIQUE(conversation_id, user_id)
			);

			CREATE INDEX IF NOT EXISTS idx_conversation_members_conversation ON conversation_members(conversation_id);
			CREATE INDEX IF NOT EXISTS idx_conversation_members_user ON conversation_members(user_id);
		`,
		Down: `
			DROP TABLE IF EXISTS conversation_members;
			DROP TABLE IF EXISTS conversations;
		`,
	},
	{
		Version: 5,
		Up: `
			CREATE TABLE IF NOT EXISTS messages (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
				sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				body TEXT NOT NULL,
				flagged BOOLEAN NOT NULL DEFAULT false,
				violation_kinds TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
			CREATE INDEX IF NOT EXISTS idx_messages_flagged ON messages(flagged) WHERE flagged;
		`,
		Down: `
			DROP TABLE IF EXISTS messages;
		`,
	},
	{
		Version: 6,
		Up: `
			CREATE TABLE IF NOT EXISTS message_reads (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				read_at TIMESTAMP NOT NULL DEFAULT NOW(),
				UNIQUE(message_id, user_id)
			);

			CREATE INDEX IF NOT EXISTS idx_message_reads_message ON message_reads(message_id);
			CREATE INDEX IF NOT EXISTS idx_message_reads_user ON message_reads(user_id);
		`,
		Down: `
			DROP TABLE IF EXISTS message_reads;
		`,
	},
	{
		Version: 7,
		Up: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INT PRIMARY KEY,
				applied_at TIMESTAMP NOT NULL DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS schema_migrations;
		`,
	},
	{
		Version: 8,
		Up: `
			CREATE TABLE IF NOT EXISTS sanction_records (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				user_display_name VARCHAR(255) NOT NULL,
				user_role VARCHAR(50) NOT NULL,
				tier VARCHAR(50) NOT NULL,
				violation_kinds TEXT[] NOT NULL DEFAULT '{}',
				reason TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMP NULL,
				lifted_at TIMESTAMP NULL,
				lifted_by VARCHAR(255) NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'active',
				appeal_status VARCHAR(50) NOT NULL DEFAULT 'none',
				appeal_reason TEXT NULL,
				appeal_date TIMESTAMP NULL
			);

			CREATE INDEX IF NOT EXISTS idx_sanction_records_user ON sanction_records(user_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_sanction_records_status ON sanction_records(status);

			CREATE TABLE IF NOT EXISTS user_sanction_status (
				user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
				current_tier VARCHAR(50) NOT NULL DEFAULT 'none',
				violation_count INT NOT NULL DEFAULT 0,
				penalty_count INT NOT NULL DEFAULT 0,
				is_banned BOOLEAN NOT NULL DEFAULT false,
				ban_reason TEXT NOT NULL DEFAULT '',
				ban_expires_at TIMESTAMP NULL,
				proposal_rank_penalty BOOLEAN NOT NULL DEFAULT false,
				can_post_projects BOOLEAN NOT NULL DEFAULT true,
				can_send_proposals BOOLEAN NOT NULL DEFAULT true,
				can_use_chat BOOLEAN NOT NULL DEFAULT true,
				warning_badge BOOLEAN NOT NULL DEFAULT false,
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS user_sanction_status;
			DROP TABLE IF EXISTS sanction_records;
		`,
	},
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB) error {
	// Ensure migrations table exists
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	// Get current version
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return err
	}

	// Run pending migrations in ascending order by version
	sorted := make([]Migration, len(Migrations))
	copy(sorted, Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, migration := range sorted {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d...\n", migration.Version)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("Migration %d completed\n", migration.Version)
	}

	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}
