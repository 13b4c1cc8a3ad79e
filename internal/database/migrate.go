package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(255)    NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		phone_number  VARCHAR(16)     NULL,
		metadata      JSON            NULL,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS skills (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title      VARCHAR(255)    NOT NULL,
		status     ENUM('PLANNED','IN_PROGRESS','DONE') NOT NULL DEFAULT 'PLANNED',
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_skills_title (title),
		KEY idx_skills_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS modules (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		skill_id    BIGINT UNSIGNED NOT NULL,
		title       VARCHAR(255)    NOT NULL,
		description TEXT            NULL,
		PRIMARY KEY (id),
		KEY idx_modules_skill (skill_id),
		CONSTRAINT fk_modules_skill FOREIGN KEY (skill_id) REFERENCES skills (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service needs if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
