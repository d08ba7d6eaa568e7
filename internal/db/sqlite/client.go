package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"

	"github.com/iamwavecut/tool"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/iamwavecut/cmdbot/internal/db"
	"github.com/iamwavecut/cmdbot/resources"
)

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

var _ db.Client = (*sqliteClient)(nil)

func NewSQLiteClient(ctx context.Context, dir, dbName string) (*sqliteClient, error) {
	dbx, err := sqlx.ConnectContext(ctx, "sqlite", filepath.Join(dir, dbName))
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	dbx.SetMaxOpenConns(1)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.ExecContext(ctx, dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		_ = dbx.Close()
		return nil, errors.Wrap(err, "migrate up")
	}
	if n > 0 {
		log.WithField("object", "sqlite").Infof("applied %d migrations", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (c *sqliteClient) Close() error {
	return c.db.Close()
}

// GetSettings falls back to the defaults for chats that never changed anything.
func (c *sqliteClient) GetSettings(ctx context.Context, chatID int64) (*db.ChatSettings, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	res := &db.ChatSettings{}
	err := c.db.GetContext(ctx, res, "SELECT chat_id, language FROM chat_settings WHERE chat_id = ?", chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return db.DefaultSettings(chatID), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get settings for chat %d", chatID)
	}
	return res, nil
}

func (c *sqliteClient) SetSettings(ctx context.Context, settings *db.ChatSettings) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO chat_settings (chat_id, language, updated_at)
		VALUES (:chat_id, :language, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id) DO UPDATE SET
		language = excluded.language,
		updated_at = excluded.updated_at
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, settings))
}

func (c *sqliteClient) AddGroup(ctx context.Context, group *db.Group) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO chat_groups (id, name) VALUES (:id, :name)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, group))
}

func (c *sqliteClient) RemoveGroup(ctx context.Context, id int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM chat_groups WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "remove group %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (c *sqliteClient) ListGroups(ctx context.Context) ([]db.Group, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var groups []db.Group
	err := c.db.SelectContext(ctx, &groups, "SELECT id, name FROM chat_groups ORDER BY id")
	return groups, errors.WithMessage(err, "list groups")
}
