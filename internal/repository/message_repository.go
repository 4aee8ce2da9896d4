package repository

import (
	"github.com/yukikurage/group-chat-api/internal/database"
	"github.com/yukikurage/group-chat-api/internal/models"
	"gorm.io/gorm"
)

// GormMessageRepository is a GORM implementation of MessageRepository
type GormMessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &GormMessageRepository{db: db}
}

// Create creates a new message
func (r *GormMessageRepository) Create(message *models.Message) error {
	return r.db.Omit("Group", "Author").Create(message).Error
}

// CountByGroup counts the messages posted to a group
func (r *GormMessageRepository) CountByGroup(groupID uint64) (int64, error) {
	var total int64
	if err := r.db.Model(&models.Message{}).
		Where("group_id = ?", groupID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListWindow returns messages ordered by posting time, ties broken by ID
func (r *GormMessageRepository) ListWindow(groupID uint64, offset, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	if limit <= 0 {
		return messages, nil
	}
	if err := r.db.Preload("Author").
		Where("group_id = ?", groupID).
		Order("date_posted ASC").
		Order("id ASC").
		Scopes(database.Window(offset, limit)).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
