package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the portal tables.  certificates.application_id is unique
// so a second certificate for one application fails with error 1062.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		user_type     VARCHAR(16)  NOT NULL,
		identifier    VARCHAR(64)  NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		full_name     VARCHAR(128) NOT NULL DEFAULT '',
		mobile_number VARCHAR(20)  NOT NULL DEFAULT '',
		email         VARCHAR(128) NOT NULL DEFAULT '',
		department    VARCHAR(32)  NOT NULL DEFAULT '',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME(3)  NOT NULL,
		UNIQUE KEY uq_users_identifier (identifier)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    CHAR(36)        NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS applications (
		id               CHAR(36)     NOT NULL PRIMARY KEY,
		application_id   VARCHAR(16)  NOT NULL,
		citizen_id       CHAR(36)     NOT NULL,
		service_type     VARCHAR(32)  NOT NULL,
		service_name     VARCHAR(128) NOT NULL DEFAULT '',
		status           VARCHAR(16)  NOT NULL,
		priority         VARCHAR(8)   NOT NULL,
		form_data        JSON         NOT NULL,
		submitted_date   DATETIME(3)  NOT NULL,
		last_updated     DATETIME(3)  NOT NULL,
		assigned_officer VARCHAR(128) NOT NULL DEFAULT '',
		approved_by      VARCHAR(128) NOT NULL DEFAULT '',
		remarks          TEXT         NOT NULL,
		documents        JSON         NOT NULL,
		version          BIGINT       NOT NULL DEFAULT 1,
		KEY idx_applications_citizen (citizen_id, submitted_date),
		KEY idx_applications_service (service_type, status, submitted_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS certificates (
		id                 CHAR(36)     NOT NULL PRIMARY KEY,
		application_id     CHAR(36)     NOT NULL,
		certificate_number VARCHAR(32)  NOT NULL,
		certificate_type   VARCHAR(32)  NOT NULL,
		issued_date        DATETIME(3)  NOT NULL,
		issued_by          VARCHAR(128) NOT NULL,
		citizen_name       VARCHAR(128) NOT NULL DEFAULT '',
		certificate_data   JSON         NOT NULL,
		digital_signature  VARCHAR(64)  NOT NULL,
		UNIQUE KEY uq_certificates_application (application_id),
		UNIQUE KEY uq_certificates_number (certificate_number),
		CONSTRAINT fk_certificates_application FOREIGN KEY (application_id) REFERENCES applications (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables.  Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
