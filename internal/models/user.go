package models

import (
	"strings"
	"time"
)

// SentinelEmail identifies the placeholder account that inherits groups and
// messages of deleted users.
const SentinelEmail = "deleted"

// UnusablePasswordPrefix marks a password hash that can never match.
const UnusablePasswordPrefix = "!"

type User struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	Email        string     `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	IsSuperuser  bool       `gorm:"not null;default:false" json:"is_superuser"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Profile     *Profile      `gorm:"foreignKey:UserID" json:"-"`
	Memberships []GroupMember `gorm:"foreignKey:UserID" json:"-"`
}

func (u User) String() string {
	return u.Email
}

func (u User) IsSentinel() bool {
	return u.Email == SentinelEmail
}

func (u User) HasUsablePassword() bool {
	return u.PasswordHash != "" && !strings.HasPrefix(u.PasswordHash, UnusablePasswordPrefix)
}
