package models

import "time"

type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Username preserves the casing picked at signup; UsernameKey is the
	// lowercased uniqueness key.
	Username    string `gorm:"type:varchar(64);not null" json:"username"`
	UsernameKey string `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`

	PasswordHash string `gorm:"type:varchar(128);not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
