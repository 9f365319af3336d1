package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// The exclusion constraint keeps overlapping active stays out of the table
// even if a code path ever bypasses the admit transaction.
const schema = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS properties (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL,
	capacity INT NOT NULL CHECK (capacity >= 1),
	nightly_rate BIGINT NOT NULL CHECK (nightly_rate >= 0),
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS reservations (
	id UUID PRIMARY KEY,
	resource_id UUID NOT NULL REFERENCES properties (id),
	requester_id UUID NOT NULL,
	owner_id UUID NOT NULL,
	check_in TIMESTAMPTZ NOT NULL,
	check_out TIMESTAMPTZ NOT NULL,
	guest_count INT NOT NULL CHECK (guest_count >= 1),
	total_price BIGINT NOT NULL CHECK (total_price >= 0),
	status TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	special_requests TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CHECK (check_out > check_in),
	CONSTRAINT reservations_no_overlap EXCLUDE USING gist (
		resource_id WITH =,
		tstzrange(check_in, check_out) WITH &&
	) WHERE (status IN ('pending', 'confirmed'))
);

CREATE INDEX IF NOT EXISTS idx_reservations_resource ON reservations (resource_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reservations_requester ON reservations (requester_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reservations_owner ON reservations (owner_id, created_at DESC);
`

// InitSchema creates the tables and constraints if they do not exist yet.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
