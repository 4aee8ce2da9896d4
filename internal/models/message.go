package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Message struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	GroupID    uint64    `gorm:"not null;index:idx_messages_group_date,priority:1" json:"group_id"`
	UserID     uint64    `gorm:"not null;index" json:"user_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	DatePosted time.Time `gorm:"not null;index:idx_messages_group_date,priority:2" json:"date_posted"`

	// Relations
	Group  Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Author User  `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// BeforeCreate stamps DatePosted at insert time when the caller left it unset.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.DatePosted.IsZero() {
		m.DatePosted = time.Now()
	}
	return nil
}

func (m Message) String() string {
	return fmt.Sprintf("(%s, %s, %s)", m.Author, m.Group, m.Text)
}
