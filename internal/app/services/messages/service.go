package messages

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/uow"
	domainmessages "stayhub/internal/domain/messages"
	domainuser "stayhub/internal/domain/user"
)

type Service struct {
	UoW uow.Factory
}

type SendParams struct {
	SenderID    domainuser.ID
	RecipientID domainuser.ID
	Body        string
}

func (s *Service) Send(ctx context.Context, params SendParams) (*domainmessages.Message, error) {
	var created *domainmessages.Message
	err := uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if _, err := unit.Users().ByID(ctx, params.RecipientID); err != nil {
			return err
		}
		msg, err := domainmessages.NewMessage(domainmessages.CreateParams{
			ID:          domainmessages.MessageID(uuid.NewString()),
			SenderID:    params.SenderID,
			RecipientID: params.RecipientID,
			Body:        params.Body,
			SentAt:      time.Now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Messages().Save(ctx, msg); err != nil {
			return err
		}
		created = msg
		return nil
	})
	return created, err
}

func (s *Service) Inbox(ctx context.Context, userID domainuser.ID) ([]*domainmessages.Message, error) {
	var result []*domainmessages.Message
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		result, err = unit.Messages().ListByParticipant(ctx, userID)
		return err
	})
	return result, err
}
