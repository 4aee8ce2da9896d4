package models

import "time"

type Group struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	CreatorID   uint64    `gorm:"not null;index" json:"creator_id"`
	Description *string   `gorm:"type:varchar(300)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Creator  User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members  []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Messages []Message     `gorm:"foreignKey:GroupID" json:"-"`
	Profile  *GroupProfile `gorm:"foreignKey:GroupID" json:"profile,omitempty"`
}

func (g Group) String() string {
	return g.Name
}
