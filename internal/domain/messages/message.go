package messages

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/user"
)

var (
	ErrBodyRequired      = errors.New("messages: body is required")
	ErrRecipientRequired = errors.New("messages: recipient is required")
	ErrSelfMessage       = errors.New("messages: sender and recipient must differ")
)

type MessageID string

type Message struct {
	ID          MessageID
	SenderID    user.ID
	RecipientID user.ID
	Body        string
	SentAt      time.Time
}

type Repository interface {
	Save(ctx context.Context, msg *Message) error
	// ListByParticipant returns messages the user sent or received, newest first.
	ListByParticipant(ctx context.Context, userID user.ID) ([]*Message, error)
}

type CreateParams struct {
	ID          MessageID
	SenderID    user.ID
	RecipientID user.ID
	Body        string
	SentAt      time.Time
}

func NewMessage(params CreateParams) (*Message, error) {
	if strings.TrimSpace(string(params.RecipientID)) == "" {
		return nil, ErrRecipientRequired
	}
	if params.SenderID == params.RecipientID {
		return nil, ErrSelfMessage
	}
	body := strings.TrimSpace(params.Body)
	if body == "" {
		return nil, ErrBodyRequired
	}
	now := params.SentAt
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		ID:          params.ID,
		SenderID:    params.SenderID,
		RecipientID: params.RecipientID,
		Body:        body,
		SentAt:      now.UTC(),
	}, nil
}
