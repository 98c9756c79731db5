package models

import "time"

type User struct {
	ID           int64
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
