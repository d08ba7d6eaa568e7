package db

import "context"

type Client interface {
	Close() error

	GetSettings(ctx context.Context, chatID int64) (*ChatSettings, error)
	SetSettings(ctx context.Context, settings *ChatSettings) error

	AddGroup(ctx context.Context, group *Group) error
	RemoveGroup(ctx context.Context, id int64) error
	ListGroups(ctx context.Context) ([]Group, error)

	AddTeacher(ctx context.Context, teacher *Teacher) error
	GetTeacher(ctx context.Context, phone int64) (*Teacher, error)

	SetMask(ctx context.Context, mask *Mask) error
	GetMask(ctx context.Context, chatID, userID int64) (*Mask, error)

	Login(ctx context.Context, login *Login) error
	Logout(ctx context.Context, chatID, userID int64) (bool, error)
	IsLoggedIn(ctx context.Context, chatID, userID int64) (bool, error)
}
