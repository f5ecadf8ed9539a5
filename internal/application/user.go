package app

import (
	"context"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
)

// UserService ведёт состояние диалога и живую сессию каждого пользователя бота.
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BeginCheck начинает новую сессию: счётчик уникальных выбоин обнуляется.
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64, source string) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.StartSession(source)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// ObserveFrame учитывает количество выбоин на очередном фото сессии и возвращает итог.
func (s *UserService) ObserveFrame(ctx context.Context, user *entity.User, count int) (int, error) {
	total := user.Session.Observe(count)
	user.SetState(entity.StateAwaitingPhoto)
	if err := s.repo.Save(ctx, user); err != nil {
		return total, err
	}
	return total, nil
}

func (s *UserService) Save(ctx context.Context, user *entity.User) error {
	return s.repo.Save(ctx, user)
}
