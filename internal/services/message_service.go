package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/group-chat-api/internal/constants"
	"github.com/yukikurage/group-chat-api/internal/models"
	"github.com/yukikurage/group-chat-api/internal/repository"
	"github.com/yukikurage/group-chat-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrEmptyMessage = errors.New("message text cannot be empty")
	ErrInvalidPage  = errors.New("page must be zero or greater")
)

// MessageService provides business logic for group messages.
type MessageService struct {
	messageRepo repository.MessageRepository
	groupRepo   repository.GroupRepository
}

// NewMessageService creates a new MessageService.
func NewMessageService(messageRepo repository.MessageRepository, groupRepo repository.GroupRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
	}
}

// PostMessage stores a message written by a member of the group.
func (s *MessageService) PostMessage(group *models.Group, authorID uint64, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := s.groupRepo.FindMember(group.ID, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupMemberNotFound
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	message := &models.Message{
		GroupID: group.ID,
		UserID:  authorID,
		Text:    text,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}
	return message, nil
}

// LastMessages returns the page-th window of the group's history counted
// back from the newest message, oldest first within the window. Page 0 holds
// the most recent messages; a page past the oldest message is empty.
func (s *MessageService) LastMessages(groupName string, page int) ([]models.Message, error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}

	group, err := s.groupRepo.FindByName(groupName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	return s.Window(group, page)
}

// Window is LastMessages for an already loaded group.
func (s *MessageService) Window(group *models.Group, page int) ([]models.Message, error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}

	total, err := s.messageRepo.CountByGroup(group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	offset, limit := utils.MessageWindow(total, page, constants.MessagePageSize)
	messages, err := s.messageRepo.ListWindow(group.ID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
