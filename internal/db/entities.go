package db

import "time"

type (
	ChatSettings struct {
		ChatID   int64  `db:"chat_id"`
		Language string `db:"language"`
	}

	Group struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}

	Teacher struct {
		Name    string `db:"name"`
		Phone   int64  `db:"phone"`
		Contact string `db:"contact"`
	}

	// Mask is a word cloud shape image uploaded by a user.
	Mask struct {
		ChatID    int64  `db:"chat_id"`
		UserID    int64  `db:"user_id"`
		Data      []byte `db:"data"`
		IsDefault bool   `db:"is_default"`
	}

	Login struct {
		ChatID     int64     `db:"chat_id"`
		UserID     int64     `db:"user_id"`
		LoggedInAt time.Time `db:"logged_in_at"`
	}
)
