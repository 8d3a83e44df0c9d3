package responders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
	"deskbot/pkg/plugin"

	_ "modernc.org/sqlite"
)

// archiveSchemaVersion is the latest schema version supported by the migrator.
const archiveSchemaVersion = 1

// Archive persists every dispatched message into a SQLite database.
type Archive struct {
	plugin.PauseFlag
	db  *sql.DB
	log *slog.Logger
}

// NewArchive opens (or creates) the database at path and ensures the schema
// is current.
func NewArchive(path string, log *slog.Logger) (*Archive, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := migrateArchive(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Archive{db: db, log: log.With("component", "plugins.archive")}, nil
}

func (r *Archive) Description() string       { return "archive messages to sqlite" }
func (r *Archive) Category() plugin.Category { return plugin.CategoryResponder }

func (r *Archive) Respond(ctx context.Context, _ plugin.Actions, conv *conversation.Conversation, msg message.Message) error {
	receivedAt := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (conversation, kind, sender, content, message_ref, received_at) VALUES (?, ?, ?, ?, ?, ?)`,
		conv.Name(), string(msg.Kind), msg.Sender, msg.Content, msg.ID, receivedAt,
	)
	if err != nil {
		return fmt.Errorf("archive message: insert: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *Archive) Close() error {
	return r.db.Close()
}

// Count returns the number of archived messages, optionally scoped to one
// conversation. An empty name counts everything.
func (r *Archive) Count(ctx context.Context, conversationName string) (int, error) {
	var count int
	var err error
	if conversationName == "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation = ?`, conversationName).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("archive count: %w", err)
	}
	return count, nil
}

// migrateArchive ensures the schema exists and is upgraded to
// archiveSchemaVersion.
func migrateArchive(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate archive: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate archive: read current version: %w", err)
	}
	if current >= archiveSchemaVersion {
		return nil
	}

	transaction, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate archive: begin transaction: %w", err)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation TEXT NOT NULL,
			kind TEXT NOT NULL,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			message_ref TEXT NOT NULL,
			received_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate archive: create messages table: %w", err)
	}

	_, err = transaction.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_conversation_received ON messages(conversation, received_at);`)
	if err != nil {
		return fmt.Errorf("migrate archive: create idx_messages_conversation_received: %w", err)
	}

	_, err = transaction.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, archiveSchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate archive: record schema version: %w", err)
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("migrate archive: commit transaction: %w", err)
	}
	return nil
}
