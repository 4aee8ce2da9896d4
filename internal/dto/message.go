package dto

import (
	"time"

	"github.com/yukikurage/group-chat-api/internal/models"
)

// MessageDTO represents a message in API responses
type MessageDTO struct {
	ID         uint64    `json:"id"`
	Text       string    `json:"text"`
	DatePosted time.Time `json:"date_posted"`
	Author     UserDTO   `json:"author"`
}

// MessageListResponse is one history window of a group, oldest first
type MessageListResponse struct {
	Group    string       `json:"group"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Messages []MessageDTO `json:"messages"`
}

// DigestResponse holds an AI summary of the latest messages
type DigestResponse struct {
	Group        string `json:"group"`
	MessageCount int    `json:"message_count"`
	Digest       string `json:"digest"`
}

// ToMessageDTO converts a message to DTO
func ToMessageDTO(message models.Message) MessageDTO {
	return MessageDTO{
		ID:         message.ID,
		Text:       message.Text,
		DatePosted: message.DatePosted,
		Author:     ToAuthorDTO(message.Author),
	}
}

// ToMessageDTOs converts a window of messages to DTOs
func ToMessageDTOs(messages []models.Message) []MessageDTO {
	res := make([]MessageDTO, len(messages))
	for i, m := range messages {
		res[i] = ToMessageDTO(m)
	}
	return res
}
