package db

import "errors"

var ErrNotFound = errors.New("not found")

const DefaultLanguage = "zh_CN"

func DefaultSettings(chatID int64) *ChatSettings {
	return &ChatSettings{
		ChatID:   chatID,
		Language: DefaultLanguage,
	}
}
