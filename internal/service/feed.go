package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/repository"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

var ErrContentRequired = errors.New("text is required")

// FeedService handles the public text feed.
type FeedService struct {
	repo *repository.PostRepository
	now  func() time.Time
}

// NewFeedService creates a new FeedService.
func NewFeedService(repo *repository.PostRepository) *FeedService {
	return &FeedService{repo: repo, now: time.Now}
}

// Create publishes a post for userID. A blank caption is stored as null.
func (s *FeedService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (model.Post, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return model.Post{}, ErrContentRequired
	}

	post := model.Post{
		UserID:    userID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if caption := strings.TrimSpace(req.Caption); caption != "" {
		post.Caption = &caption
	}

	if err := s.repo.Create(ctx, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// List returns one page of the feed. Out-of-range paging values are clamped.
func (s *FeedService) List(ctx context.Context, limit, offset int) (model.FeedResponse, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return model.FeedResponse{}, err
	}

	return model.FeedResponse{Posts: posts, Limit: limit, Offset: offset}, nil
}
