package database

import "time"

// Pool defaults
const (
	DefaultMinConnections = 2
	DefaultConnectTimeout = 10 * time.Second
)

// MigrationDialect is the goose dialect for the embedded migrations
const MigrationDialect = "postgres"

// Error Messages - Database Operations
const (
	ErrMsgFailedToParseConnString = "failed to parse connection string"
	ErrMsgFailedToCreatePool      = "failed to create connection pool"
	ErrMsgFailedToPingDatabase    = "failed to ping database"
	ErrMsgFailedToSetDialect      = "failed to set migration dialect"
	ErrMsgFailedToRunMigrations   = "failed to run migrations"
)

// Log Messages
const (
	LogMsgSuccessfullyConnectedToDatabase = "Successfully connected to the database"
	LogMsgRunningMigrations               = "Running database migrations"
	LogMsgMigrationsComplete              = "Database migrations complete"
)
