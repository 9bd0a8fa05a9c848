package service

import (
	"context"
	"errors"

	"feedhunt/internal/post"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository interface {
	Create(ctx context.Context, p *post.Post) error
	ListByUser(ctx context.Context, userID int64) ([]*post.Post, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*post.Post, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
	Feed(ctx context.Context, userID int64) ([]*post.Post, error)
}

type Service struct {
	repo PostRepository
}

func NewService(repo PostRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePost(ctx context.Context, userID int64, title, description string) (*post.Post, error) {
	p := &post.Post{
		UserID:      userID,
		Title:       title,
		Description: description,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetUserPosts(ctx context.Context, userID int64) ([]*post.Post, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetPost отдаёт пост только его владельцу
func (s *Service) GetPost(ctx context.Context, id, userID int64) (*post.Post, error) {
	p, err := s.repo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	return p, nil
}

func (s *Service) DeletePost(ctx context.Context, id, userID int64) error {
	deleted, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPostNotFound
	}
	return nil
}

func (s *Service) GetFeed(ctx context.Context, userID int64) ([]*post.Post, error) {
	return s.repo.Feed(ctx, userID)
}
