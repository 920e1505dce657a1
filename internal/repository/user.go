package repository

import (
	"context"
	"strings"

	"github.com/NoahAppelbaum/warbler/internal/cache"
	"github.com/NoahAppelbaum/warbler/internal/models"
	"github.com/NoahAppelbaum/warbler/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// profileColumns are the columns a profile edit may change.
var profileColumns = []string{"username", "email", "image_url", "header_image_url", "location", "bio"}

// UserRepository defines persistence operations for users and follow edges.
type UserRepository interface {
	// GetByID may be served from cache; the returned user never carries the password hash.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, limit, offset int) ([]models.User, error)

	Follow(ctx context.Context, followerID, followedID uint) error
	Unfollow(ctx context.Context, followerID, followedID uint) error
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	Following(ctx context.Context, userID uint) ([]models.User, error)
	Followers(ctx context.Context, userID uint) ([]models.User, error)
	CountsFor(ctx context.Context, userID uint) (*models.UserStats, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "users", "GetByID")
	var user models.User

	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		defer observability.TrackQuery("select", "users")()
		return translateError(
			r.db.WithContext(ctx).First(&user, id).Error,
			models.NewNotFoundError("User", id), "")
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translateError(err, models.NewNotFoundError("User", username), "")
	}
	return &user, nil
}

// Create inserts the user. Uniqueness is left to the schema: a duplicate username
// or email fails the insert with an integrity error.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translateError(err, nil, "Username or email already taken")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

// Update writes the profile columns only. The password column is never touched.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("update", "users")()
	result := r.db.WithContext(ctx).Model(user).Select(profileColumns).Updates(user)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return translateError(result.Error, nil, "Username or email already taken")
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	cache.InvalidateUser(ctx, user.ID)
	r.log.LogUpdate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

// Delete removes the user; messages, follows and likes go with it through
// ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "users")()
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return translateError(result.Error, nil, "User could not be deleted")
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	r.log.LogDelete(ctx, map[string]interface{}{"user_id": id})
	return nil
}

// Search lists users whose username contains query, case-insensitively.
// An empty query lists everyone.
func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where(`LOWER(username) LIKE LOWER(?) ESCAPE '\'`, "%"+escapeLike(query)+"%")
	}

	var users []models.User
	err := q.Order("username").Limit(clampLimit(limit)).Offset(max(offset, 0)).Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Follow records that followerID follows followedID. An existing edge fails with an
// integrity error, as does an edge to a missing user.
func (r *userRepository) Follow(ctx context.Context, followerID, followedID uint) error {
	follow := &models.Follow{UserBeingFollowedID: followedID, UserFollowingID: followerID}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(follow).Error; err != nil {
		return translateError(err, nil, "Follow could not be created")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"follower_id": followerID, "followed_id": followedID})
	return nil
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followedID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_following_id = ? AND user_being_followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Follow", followedID)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"follower_id": followerID, "followed_id": followedID})
	return nil
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_following_id = ? AND user_being_followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Following lists the users userID follows.
func (r *userRepository) Following(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.user_being_followed_id = users.id").
		Where("follows.user_following_id = ?", userID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Followers lists the users following userID.
func (r *userRepository) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.user_following_id = users.id").
		Where("follows.user_being_followed_id = ?", userID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) CountsFor(ctx context.Context, userID uint) (*models.UserStats, error) {
	db := r.db.WithContext(ctx)
	stats := &models.UserStats{}

	counts := []struct {
		model interface{}
		where string
		dest  *int64
	}{
		{&models.Message{}, "user_id = ?", &stats.Messages},
		{&models.Follow{}, "user_following_id = ?", &stats.Following},
		{&models.Follow{}, "user_being_followed_id = ?", &stats.Followers},
		{&models.Like{}, "user_id = ?", &stats.Likes},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, userID).Count(c.dest).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	return stats, nil
}
