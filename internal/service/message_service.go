package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/observability"
	"github.com/NoahAppelbaum/warbler/internal/repository"
	"github.com/NoahAppelbaum/warbler/internal/validation"
)

// TimelineSize is the number of messages shown on the home timeline.
const TimelineSize = 100

type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	uow      repository.UnitOfWork
}

func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, uow repository.UnitOfWork) *MessageService {
	return &MessageService{messages: messages, users: users, uow: uow}
}

// Create stores a message for userID. Markup is stripped before the length check.
func (s *MessageService) Create(ctx context.Context, userID uint, text string) (*models.Message, error) {
	text = validation.SanitizeText(text)
	if text == "" {
		return nil, models.NewValidationError("Message text is required.")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, models.NewValidationError(
			fmt.Sprintf("Message cannot be longer than %d characters.", models.MaxMessageLength))
	}

	message := &models.Message{UserID: userID, Text: text}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	observability.RecordSocialEvent("message_posted")
	return message, nil
}

// Get loads a message with its author, marking whether viewerID liked it.
// viewerID may be 0 for anonymous viewers.
func (s *MessageService) Get(ctx context.Context, id, viewerID uint) (*models.Message, error) {
	message, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if message.Liked, err = s.messages.IsLiked(ctx, viewerID, id); err != nil {
			return nil, err
		}
	}
	return message, nil
}

// Delete removes a message owned by userID. Messages that are missing or owned by
// someone else are reported as not found.
func (s *MessageService) Delete(ctx context.Context, userID, messageID uint) error {
	return s.uow.Do(ctx, func(repos repository.Repositories) error {
		message, err := repos.Messages.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if message.UserID != userID {
			return models.NewNotFoundError("Message", messageID)
		}
		if err := repos.Messages.Delete(ctx, messageID); err != nil {
			return err
		}
		observability.RecordSocialEvent("message_deleted")
		return nil
	})
}

// ToggleLike likes the message, or unlikes it when already liked. It returns the
// new state. Users cannot like their own messages.
func (s *MessageService) ToggleLike(ctx context.Context, userID, messageID uint) (bool, error) {
	var liked bool
	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		message, err := repos.Messages.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if message.UserID == userID {
			return models.NewForbiddenError("You cannot like your own message.")
		}

		already, err := repos.Messages.IsLiked(ctx, userID, messageID)
		if err != nil {
			return err
		}
		if already {
			if err := repos.Messages.Unlike(ctx, userID, messageID); err != nil {
				return err
			}
			observability.RecordSocialEvent("unlike")
			return nil
		}

		if err := repos.Messages.Like(ctx, userID, messageID); err != nil {
			return err
		}
		liked = true
		observability.RecordSocialEvent("like")
		return nil
	})
	return liked, err
}

// Timeline returns the newest messages by userID and the users they follow.
func (s *MessageService) Timeline(ctx context.Context, userID uint) ([]models.Message, error) {
	messages, err := s.messages.Timeline(ctx, userID, TimelineSize)
	if err != nil {
		return nil, err
	}
	return messages, s.markLiked(ctx, userID, messages)
}

// ListByUser returns a user's newest messages as seen by viewerID.
func (s *MessageService) ListByUser(ctx context.Context, userID, viewerID uint) ([]models.Message, error) {
	messages, err := s.messages.ListByUser(ctx, userID, TimelineSize)
	if err != nil {
		return nil, err
	}
	return messages, s.markLiked(ctx, viewerID, messages)
}

// LikedMessages lists the messages userID liked, as seen by viewerID.
func (s *MessageService) LikedMessages(ctx context.Context, userID, viewerID uint) ([]models.Message, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	messages, err := s.messages.LikedMessages(ctx, userID)
	if err != nil {
		return nil, err
	}
	return messages, s.markLiked(ctx, viewerID, messages)
}

// UsersWhoLiked lists the users who liked messageID.
func (s *MessageService) UsersWhoLiked(ctx context.Context, messageID uint) ([]models.User, error) {
	if _, err := s.messages.GetByID(ctx, messageID); err != nil {
		return nil, err
	}
	return s.messages.UsersWhoLiked(ctx, messageID)
}

func (s *MessageService) markLiked(ctx context.Context, viewerID uint, messages []models.Message) error {
	if viewerID == 0 || len(messages) == 0 {
		return nil
	}

	ids := make([]uint, len(messages))
	for i := range messages {
		ids[i] = messages[i].ID
	}
	liked, err := s.messages.LikedMessageIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}

	set := make(map[uint]struct{}, len(liked))
	for _, id := range liked {
		set[id] = struct{}{}
	}
	for i := range messages {
		_, messages[i].Liked = set[messages[i].ID]
	}
	return nil
}
