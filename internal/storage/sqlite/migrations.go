package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are stored as TEXT and scanned into decimals so no monetary value
// ever passes through binary floating point.
const schema = `
CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    balance TEXT NOT NULL DEFAULT '0',
    membership_type TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    amount TEXT NOT NULL,
    description TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    date INTEGER NOT NULL,
    member_id TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS allocations (
    transaction_id TEXT NOT NULL,
    member_id TEXT,
    amount TEXT NOT NULL,
    FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payment_requests (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    amount TEXT NOT NULL,
    due_date INTEGER,
    category TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    member_id TEXT NOT NULL,
    transaction_id TEXT UNIQUE,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS membership_types (
    name TEXT PRIMARY KEY,
    fee TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_member_id ON transactions(member_id);
CREATE INDEX IF NOT EXISTS idx_allocations_transaction_id ON allocations(transaction_id);
CREATE INDEX IF NOT EXISTS idx_allocations_member_id ON allocations(member_id);
CREATE INDEX IF NOT EXISTS idx_payment_requests_title ON payment_requests(title);
CREATE INDEX IF NOT EXISTS idx_payment_requests_member_id ON payment_requests(member_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
