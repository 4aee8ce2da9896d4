package models

import (
	"path"

	"github.com/yukikurage/group-chat-api/internal/constants"
)

type Profile struct {
	ID     uint64  `gorm:"primarykey" json:"id"`
	UserID uint64  `gorm:"not null;uniqueIndex" json:"user_id"`
	Bio    *string `gorm:"type:varchar(300)" json:"bio"`
	Image  string  `gorm:"type:varchar(255);not null;default:'default.png'" json:"image"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

type GroupProfile struct {
	ID      uint64 `gorm:"primarykey" json:"id"`
	GroupID uint64 `gorm:"not null;uniqueIndex" json:"group_id"`
	Image   string `gorm:"type:varchar(255);not null;default:'default_group.png'" json:"image"`

	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

// ProfileImagePath is where a user's uploaded image is stored.
func ProfileImagePath(email, filename string) string {
	return path.Join(constants.ProfileImageDir, email, filename)
}

// GroupImagePath is where a group's uploaded image is stored.
func GroupImagePath(groupName, filename string) string {
	return path.Join(constants.GroupImageDir, groupName, filename)
}
