package models

import "time"

// GroupMember is one row of a group's membership set.
type GroupMember struct {
	GroupID  uint64    `gorm:"primarykey" json:"group_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
