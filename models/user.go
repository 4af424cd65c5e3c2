package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Role      UserRole  `gorm:"type:enum('ADMIN','OWNER','SALES');not null;default:'SALES'" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Phone    string   `json:"phone"`
	Role     UserRole `json:"role" validate:"required"`
}

/*
caches:
	User:$username
	Token:$token -> $username
*/

func userCacheKey(username string) string {
	return "User:" + username
}

func sessionCacheKey(token string) string {
	return "Token:" + token
}

func (user User) CurrentUser() appctx.CurrentUser {
	return appctx.CurrentUser{ID: user.ID, Username: user.Username, Name: user.Name, Role: user.Role}
}

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey(userCacheKey(user.Username))
}

// GetUserByUsername reads the cached user first, then the db.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject(userCacheKey(username), &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if err := config.SetRedisObject(userCacheKey(username), &user, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}

func GetAllUsers(ctx context.Context) ([]*User, error) {
	return utils.FetchAllModels[User](ctx)
}

// UpsertUser creates the user or refreshes its name, phone and role.
func UpsertUser(ctx context.Context, input *NewUser) (*User, error) {
	if !input.Role.IsValid() {
		return nil, errors.New("invalid role")
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	phone := input.Phone
	if phone != "" {
		normalized, err := utils.NormalizePhoneNumber(phone, config.DefaultPhoneRegion())
		if err != nil {
			return nil, err
		}
		phone = normalized
	}

	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user.Username = username
	user.Name = input.Name
	user.Phone = phone
	user.Role = input.Role
	user.IsActive = utils.NewTrue()
	if err := db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	if err := user.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateSession stores a new token for user and returns it.
func CreateSession(ctx context.Context, user *User, lifespan time.Duration) (string, error) {
	if user.IsActive != nil && !*user.IsActive {
		return "", errors.New("user is disabled")
	}
	token := uuid.New().String()
	if err := config.SetRedisValue(sessionCacheKey(token), user.Username, lifespan); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveSession maps a session token to the active user behind it.
func ResolveSession(ctx context.Context, token string) (appctx.CurrentUser, error) {
	username, exists, err := config.GetRedisValue(sessionCacheKey(token))
	if err != nil {
		return appctx.CurrentUser{}, err
	}
	if !exists || username == "" {
		return appctx.CurrentUser{}, utils.ErrorUnauthorized
	}
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return appctx.CurrentUser{}, utils.ErrorUnauthorized
		}
		return appctx.CurrentUser{}, err
	}
	if user.IsActive != nil && !*user.IsActive {
		return appctx.CurrentUser{}, utils.ErrorUnauthorized
	}
	return user.CurrentUser(), nil
}

func Logout(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	return config.RemoveRedisKey(sessionCacheKey(token))
}
