package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Yam_Community/internal/metrics"
	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type CommentDeps struct {
	Comments  CommentStore
	Posts     PostStore
	Members   MembershipChecker
	Moderator Moderator
	Publisher Publisher
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

type CommentService struct {
	comments CommentStore
	posts    PostStore
	members  MembershipChecker
	gate     contentGate
	events   eventSink
	metrics  *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewCommentService(d CommentDeps) *CommentService {
	return &CommentService{
		comments: d.Comments,
		posts:    d.Posts,
		members:  d.Members,
		gate:     contentGate{moderator: d.Moderator},
		events:   eventSink{pub: d.Publisher, log: orNop(d.Logger)},
		metrics:  d.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Create 评论者需是帖子所在社区的成员；帖子评论数随评论一起写入
func (s *CommentService) Create(ctx context.Context, postID, authorID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkg.Invalid("comment content is required")
	}
	if authorID == "" {
		return nil, pkg.Invalid("author is required")
	}
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err = screen(ctx, s.members, s.gate, authorID, post.CommunityID, content, nil); err != nil {
		return nil, err
	}

	c := &model.Comment{
		CommentID: s.newID(),
		AuthorID:  authorID,
		PostID:    postID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err = s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventCommentCreated,
		AggregateID: c.CommentID,
		CommunityID: post.CommunityID,
		ActorID:     authorID,
		Payload:     map[string]any{"postId": postID},
	})
	return c, nil
}

func (s *CommentService) Get(ctx context.Context, commentID string) (*model.Comment, error) {
	return s.comments.Get(ctx, commentID)
}

func (s *CommentService) Update(ctx context.Context, commentID, requesterID, content string) (*model.Comment, error) {
	existing, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != requesterID {
		return nil, pkg.ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkg.Invalid("comment content is required")
	}
	if content != existing.Content {
		if err = s.gate.moderate(ctx, content, nil); err != nil {
			return nil, err
		}
	}
	updated, err := s.comments.Update(ctx, commentID, content)
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventCommentUpdated,
		AggregateID: commentID,
		ActorID:     requesterID,
		Payload:     map[string]any{"postId": existing.PostID},
	})
	return updated, nil
}

func (s *CommentService) Delete(ctx context.Context, commentID, requesterID string) error {
	existing, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if existing.AuthorID != requesterID {
		return pkg.ErrUnauthorized
	}
	if err = s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventCommentDeleted,
		AggregateID: commentID,
		ActorID:     requesterID,
		Payload:     map[string]any{"postId": existing.PostID},
	})
	return nil
}

func (s *CommentService) List(ctx context.Context, postID string, page model.Page) (model.PaginatedResult[model.Comment], error) {
	items, total, err := s.comments.List(ctx, postID, page.Normalize())
	if err != nil {
		return model.PaginatedResult[model.Comment]{}, err
	}
	return model.PaginatedResult[model.Comment]{Items: items, TotalCount: total}, nil
}

func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID string) (model.ToggleResult, error) {
	if userID == "" {
		return model.ToggleResult{}, pkg.Invalid("user is required")
	}
	res, err := s.comments.ToggleLike(ctx, userID, commentID)
	if err != nil {
		return res, err
	}
	s.metrics.LikeToggled(string(model.LikeTargetComment), res.Action())
	evType := model.EventCommentUnliked
	if res.Liked {
		evType = model.EventCommentLiked
	}
	s.events.emit(ctx, model.Event{
		Type:        evType,
		AggregateID: commentID,
		ActorID:     userID,
		Payload:     map[string]any{"likesCount": res.LikesCount},
	})
	return res, nil
}

func (s *CommentService) HasLiked(ctx context.Context, commentID, userID string) (bool, error) {
	return s.comments.HasLiked(ctx, userID, commentID)
}
