package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/iamwavecut/cmdbot/internal/db"
)

func (c *sqliteClient) AddTeacher(ctx context.Context, teacher *db.Teacher) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO teachers (phone, name, contact) VALUES (:phone, :name, :contact)
		ON CONFLICT(phone) DO UPDATE SET
		name = excluded.name,
		contact = excluded.contact
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, teacher))
}

func (c *sqliteClient) GetTeacher(ctx context.Context, phone int64) (*db.Teacher, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	res := &db.Teacher{}
	err := c.db.GetContext(ctx, res, "SELECT phone, name, contact FROM teachers WHERE phone = ?", phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	return res, errors.WithMessagef(err, "get teacher %d", phone)
}

func (c *sqliteClient) SetMask(ctx context.Context, mask *db.Mask) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO masks (chat_id, user_id, data, is_default, updated_at)
		VALUES (:chat_id, :user_id, :data, :is_default, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET
		data = excluded.data,
		is_default = excluded.is_default,
		updated_at = excluded.updated_at
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, mask))
}

func (c *sqliteClient) GetMask(ctx context.Context, chatID, userID int64) (*db.Mask, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	res := &db.Mask{}
	err := c.db.GetContext(ctx, res,
		"SELECT chat_id, user_id, data, is_default FROM masks WHERE chat_id = ? AND user_id = ?",
		chatID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	return res, errors.WithMessage(err, "get mask")
}

func (c *sqliteClient) Login(ctx context.Context, login *db.Login) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if login.LoggedInAt.IsZero() {
		login.LoggedInAt = time.Now()
	}
	query := `
		INSERT INTO logins (chat_id, user_id, logged_in_at) VALUES (:chat_id, :user_id, :logged_in_at)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET logged_in_at = excluded.logged_in_at
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, login))
}

// Logout reports whether a session existed.
func (c *sqliteClient) Logout(ctx context.Context, chatID, userID int64) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM logins WHERE chat_id = ? AND user_id = ?", chatID, userID)
	if err != nil {
		return false, errors.Wrap(err, "logout")
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (c *sqliteClient) IsLoggedIn(ctx context.Context, chatID, userID int64) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM logins WHERE chat_id = ? AND user_id = ?", chatID, userID)
	return count > 0, errors.WithMessage(err, "check login")
}
