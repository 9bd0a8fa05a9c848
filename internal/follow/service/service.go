package service

import (
	"context"
	"errors"

	"feedhunt/internal/follow"
	"feedhunt/internal/user"
)

var (
	ErrSelfFollow   = errors.New("you cannot follow yourself")
	ErrUserNotFound = errors.New("user not found")
)

type FollowRepository interface {
	Attach(ctx context.Context, followerID, followingID int64) error
	Detach(ctx context.Context, followerID, followingID int64) error
	ListUsers(ctx context.Context, currentUserID int64) ([]*follow.UserSummary, error)
	Following(ctx context.Context, userID int64) ([]*follow.UserSummary, error)
	Followers(ctx context.Context, userID int64) ([]*follow.UserSummary, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type Service struct {
	repo  FollowRepository
	users UserRepository
}

func NewService(repo FollowRepository, users UserRepository) *Service {
	return &Service{repo: repo, users: users}
}

// Follow подписывает followerID на targetID. Повторная подписка безвредна.
func (s *Service) Follow(ctx context.Context, followerID, targetID int64) (*user.User, error) {
	if followerID == targetID {
		return nil, ErrSelfFollow
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	if err := s.repo.Attach(ctx, followerID, targetID); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *Service) Unfollow(ctx context.Context, followerID, targetID int64) (*user.User, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	if err := s.repo.Detach(ctx, followerID, targetID); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *Service) ExploreUsers(ctx context.Context, currentUserID int64) ([]*follow.UserSummary, error) {
	return s.repo.ListUsers(ctx, currentUserID)
}

func (s *Service) Following(ctx context.Context, userID int64) ([]*follow.UserSummary, error) {
	return s.repo.Following(ctx, userID)
}

func (s *Service) Followers(ctx context.Context, userID int64) ([]*follow.UserSummary, error) {
	return s.repo.Followers(ctx, userID)
}
