package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	IsActivated  bool      `gorm:"not null;default:false"   json:"is_activated"`
	Avatar       *string   `json:"avatar"`
	RefreshToken *string   `json:"-"`
	ResetToken   *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Contact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string    `gorm:"not null"                 json:"first_name"`
	LastName  string    `gorm:"not null"                 json:"last_name"`
	Email     string    `gorm:"not null"                 json:"email"`
	Phone     string    `gorm:"not null"                 json:"phone"`
	BDay      time.Time `gorm:"not null"                 json:"b_day"`
	Note      *string   `json:"note"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
}
