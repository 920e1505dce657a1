package repository

import (
	"context"

	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository defines persistence operations for messages and like edges.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error)

	Like(ctx context.Context, userID, messageID uint) error
	Unlike(ctx context.Context, userID, messageID uint) error
	IsLiked(ctx context.Context, userID, messageID uint) (bool, error)
	LikedMessages(ctx context.Context, userID uint) ([]models.Message, error)
	UsersWhoLiked(ctx context.Context, messageID uint) ([]models.User, error)
	LikedMessageIDs(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error)
}

type messageRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, log: observability.NewRepoLogger("messages")}
}

// Create inserts the message. The schema rejects text over 140 characters and
// unknown authors.
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	defer observability.TrackQuery("insert", "messages")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translateError(err, nil, "Message could not be saved")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"message_id": message.ID, "user_id": message.UserID})
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Preload("User").First(&message, id).Error
	if err != nil {
		return nil, translateError(err, models.NewNotFoundError("Message", id), "")
	}
	return &message, nil
}

// Delete removes the message and, through ON DELETE CASCADE, its likes.
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "messages")()
	result := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"message_id": id})
	return nil
}

func (r *messageRepository) newestFirst(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Order("messages.created_at DESC").Order("messages.id DESC")
}

func (r *messageRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.newestFirst(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Limit(clampLimit(limit)).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// Timeline returns the newest messages written by userID or by anyone userID follows.
func (r *messageRepository) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "messages", "Timeline")
	defer observability.TrackQuery("select", "messages")()

	followed := r.db.WithContext(ctx).Model(&models.Follow{}).
		Select("user_being_followed_id").
		Where("user_following_id = ?", userID)

	var messages []models.Message
	err := r.newestFirst(ctx).
		Preload("User").
		Where("user_id = ? OR user_id IN (?)", userID, followed).
		Limit(clampLimit(limit)).
		Find(&messages).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// Like records that userID likes messageID. Liking twice violates the composite
// primary key and fails with an integrity error.
func (r *messageRepository) Like(ctx context.Context, userID, messageID uint) error {
	like := &models.Like{UserID: userID, MessageID: messageID}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(like).Error; err != nil {
		return translateError(err, nil, "Like could not be saved")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"user_id": userID, "message_id": messageID})
	return nil
}

func (r *messageRepository) Unlike(ctx context.Context, userID, messageID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&models.Like{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Like", messageID)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"user_id": userID, "message_id": messageID})
	return nil
}

func (r *messageRepository) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// LikedMessages lists the messages userID liked. Order is unspecified.
func (r *messageRepository) LikedMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// UsersWhoLiked lists the users who liked messageID. Order is unspecified.
func (r *messageRepository) UsersWhoLiked(ctx context.Context, messageID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN likes ON likes.user_id = users.id").
		Where("likes.message_id = ?", messageID).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// LikedMessageIDs returns the subset of messageIDs that userID liked.
func (r *messageRepository) LikedMessageIDs(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Pluck("message_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}
