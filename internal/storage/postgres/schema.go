package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS bank_accounts (
		id              BIGSERIAL PRIMARY KEY,
		account_number  VARCHAR(32) NOT NULL UNIQUE,
		holder_name     VARCHAR(128) NOT NULL,
		account_type    VARCHAR(16) NOT NULL CHECK (account_type IN ('SAVINGS', 'CURRENT')),
		balance         NUMERIC(18,2) NOT NULL,
		minimum_balance NUMERIC(18,2) NOT NULL,
		interest_rate   NUMERIC(5,2) NOT NULL DEFAULT 0,
		status          VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                  BIGSERIAL PRIMARY KEY,
		transaction_id      VARCHAR(16) NOT NULL UNIQUE,
		from_account_number VARCHAR(32) REFERENCES bank_accounts (account_number),
		to_account_number   VARCHAR(32) REFERENCES bank_accounts (account_number),
		amount              NUMERIC(18,2) NOT NULL CHECK (amount > 0),
		transaction_type    VARCHAR(16) NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		performed_by        VARCHAR(64) NOT NULL,
		status              VARCHAR(16) NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_from_idx ON transactions (from_account_number)`,
	`CREATE INDEX IF NOT EXISTS transactions_to_idx ON transactions (to_account_number)`,
}

// Migrate creates the tables the store needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
