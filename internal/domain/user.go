package domain

import "time"

type User struct {
	TelegramID int64
	FirstName  string
	Username   string
	CreatedAt  time.Time
}
