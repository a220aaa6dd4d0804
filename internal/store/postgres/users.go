package postgres

import (
	"context"

	"github.com/emilythestrangee/question-board/backend/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	return s.translate(err, "user", "store_create_user_failed", "username", u.Username)
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Take(&u, "id = ?", id).Error; err != nil {
		return models.User{}, s.translate(err, "user", "store_get_user_failed", "user_id", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Take(&u, "email = ?", email).Error; err != nil {
		return models.User{}, s.translate(err, "user", "store_get_user_by_email_failed")
	}
	return u, nil
}
