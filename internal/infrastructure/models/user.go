package models

import (
	"time"
)

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     *string   `gorm:"type:varchar(50);uniqueIndex:idx_users_username"`
	Email        *string   `gorm:"type:varchar(40);uniqueIndex:idx_users_email"`
	Phone        *string   `gorm:"type:varchar(20);uniqueIndex:idx_users_phone"`
	Gender       string    `gorm:"type:varchar(10);not null"`
	GenderSearch string    `gorm:"type:varchar(10);not null"`
	Balance      int64     `gorm:"type:bigint;not null;default:0"`
	Birthday     time.Time `gorm:"type:date;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}
