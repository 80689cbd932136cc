package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Yam_Community/internal/metrics"
	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type PostDeps struct {
	Posts     PostStore
	Members   MembershipChecker
	Moderator Moderator
	Uploader  Uploader
	Publisher Publisher
	Logger    *zap.Logger
	Metrics   *metrics.Metrics

	UploadTimeout time.Duration
}

type PostService struct {
	posts   PostStore
	members MembershipChecker
	gate    contentGate
	events  eventSink
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewPostService(d PostDeps) *PostService {
	return &PostService{
		posts:   d.Posts,
		members: d.Members,
		gate:    contentGate{moderator: d.Moderator, uploader: d.Uploader, uploadTimeout: d.UploadTimeout, log: orNop(d.Logger)},
		events:  eventSink{pub: d.Publisher, log: orNop(d.Logger)},
		metrics: d.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// screen 成员校验和内容审核并发执行；非成员优先于审核结果
func screen(ctx context.Context, members MembershipChecker, gate contentGate, userID, communityID, text string, image *model.File) error {
	var (
		wg                     sync.WaitGroup
		isMember               bool
		memberErr, moderateErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		isMember, memberErr = members.IsMember(ctx, userID, communityID)
	}()
	go func() {
		defer wg.Done()
		moderateErr = gate.moderate(ctx, text, image)
	}()
	wg.Wait()

	if memberErr != nil {
		return memberErr
	}
	if !isMember {
		return pkg.ErrUnauthorized
	}
	return moderateErr
}

func (s *PostService) Create(ctx context.Context, communityID, creatorID, content string, image *model.File) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && image.Empty() {
		return nil, pkg.Invalid("post needs content or an image")
	}
	if communityID == "" || creatorID == "" {
		return nil, pkg.Invalid("community and creator are required")
	}
	if err := screen(ctx, s.members, s.gate, creatorID, communityID, content, image); err != nil {
		return nil, err
	}
	imageURL, err := s.gate.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	p := &model.Post{
		PostID:      s.newID(),
		CreatorID:   creatorID,
		CommunityID: communityID,
		Content:     content,
		ImageURL:    imageURL,
		CreatedAt:   s.now(),
	}
	if err = s.posts.Create(ctx, p); err != nil {
		s.gate.discard(ctx, imageURL)
		return nil, err
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventPostCreated,
		AggregateID: p.PostID,
		CommunityID: communityID,
		ActorID:     creatorID,
	})
	return p, nil
}

func (s *PostService) Get(ctx context.Context, postID string) (*model.Post, error) {
	return s.posts.Get(ctx, postID)
}

// Update 仅作者可改；只审核变化的部分，未提供新图片时保留原图
func (s *PostService) Update(ctx context.Context, postID, requesterID, content string, image *model.File) (*model.Post, error) {
	existing, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing.CreatorID != requesterID {
		return nil, pkg.ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" && image.Empty() && existing.ImageURL == "" {
		return nil, pkg.Invalid("post needs content or an image")
	}
	changedText := ""
	if content != existing.Content {
		changedText = content
	}
	imageURL, err := s.gate.approve(ctx, changedText, image)
	if err != nil {
		return nil, err
	}
	updated, err := s.posts.Update(ctx, postID, content, imageURL)
	if err != nil {
		s.gate.discard(ctx, imageURL)
		return nil, err
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventPostUpdated,
		AggregateID: postID,
		CommunityID: updated.CommunityID,
		ActorID:     requesterID,
	})
	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, postID, requesterID string) error {
	existing, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if existing.CreatorID != requesterID {
		return pkg.ErrUnauthorized
	}
	if err = s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventPostDeleted,
		AggregateID: postID,
		CommunityID: existing.CommunityID,
		ActorID:     requesterID,
	})
	return nil
}

func (s *PostService) List(ctx context.Context, q model.PostQuery) (model.PaginatedResult[model.Post], error) {
	if q.CommunityID == "" {
		return model.PaginatedResult[model.Post]{}, pkg.Invalid("communityId is required")
	}
	q.Page = q.Page.Normalize()
	if q.Sort != model.SortAsc {
		q.Sort = model.SortDesc
	}
	q.Search = strings.TrimSpace(q.Search)
	items, total, err := s.posts.List(ctx, q)
	if err != nil {
		return model.PaginatedResult[model.Post]{}, err
	}
	return model.PaginatedResult[model.Post]{Items: items, TotalCount: total}, nil
}

func (s *PostService) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	return s.posts.ListByCreator(ctx, userID)
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (model.ToggleResult, error) {
	if userID == "" {
		return model.ToggleResult{}, pkg.Invalid("user is required")
	}
	res, err := s.posts.ToggleLike(ctx, userID, postID)
	if err != nil {
		return res, err
	}
	s.metrics.LikeToggled(string(model.LikeTargetPost), res.Action())
	evType := model.EventPostUnliked
	if res.Liked {
		evType = model.EventPostLiked
	}
	s.events.emit(ctx, model.Event{
		Type:        evType,
		AggregateID: postID,
		ActorID:     userID,
		Payload:     map[string]any{"likesCount": res.LikesCount},
	})
	return res, nil
}

func (s *PostService) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	return s.posts.HasLiked(ctx, userID, postID)
}
