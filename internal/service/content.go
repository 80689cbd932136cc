package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"Yam_Community/internal/model"
	"Yam_Community/internal/moderation"
	"Yam_Community/internal/pkg"
)

var errUploadsDisabled = errors.New("uploads are not configured")

const (
	defaultUploadTimeout    = 10 * time.Second
	defaultRoleStoreTimeout = 5 * time.Second
)

// legContext 每个外部调用都有自己的超时
func legContext(ctx context.Context, d, fallback time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = fallback
	}
	return context.WithTimeout(ctx, d)
}

// contentGate 先审核再上传，上传只发生在审核通过之后
type contentGate struct {
	moderator     Moderator
	uploader      Uploader
	uploadTimeout time.Duration
	log           *zap.Logger
}

func (g contentGate) moderate(ctx context.Context, text string, image *model.File) error {
	if strings.TrimSpace(text) == "" && image.Empty() {
		return nil
	}
	return g.moderator.Validate(ctx, moderation.Content{Text: text, Image: image})
}

func (g contentGate) upload(ctx context.Context, image *model.File) (string, error) {
	if image.Empty() {
		return "", nil
	}
	if g.uploader == nil {
		return "", pkg.Store("blob.upload", errUploadsDisabled)
	}
	ctx, cancel := legContext(ctx, g.uploadTimeout, defaultUploadTimeout)
	defer cancel()
	return g.uploader.Upload(ctx, image)
}

func (g contentGate) approve(ctx context.Context, text string, image *model.File) (string, error) {
	if err := g.moderate(ctx, text, image); err != nil {
		return "", err
	}
	return g.upload(ctx, image)
}

// discard 后续写入失败时删除已上传的对象，删除失败只记日志
func (g contentGate) discard(ctx context.Context, url string) {
	if url == "" || g.uploader == nil {
		return
	}
	ctx, cancel := legContext(context.WithoutCancel(ctx), g.uploadTimeout, defaultUploadTimeout)
	defer cancel()
	if err := g.uploader.Remove(ctx, url); err != nil {
		orNop(g.log).Warn("orphaned upload", zap.String("url", url), zap.Error(err))
	}
}

const publishTimeout = 3 * time.Second

// eventSink 事件投递失败只记日志
type eventSink struct {
	pub Publisher
	log *zap.Logger
}

func (s eventSink) emit(ctx context.Context, ev model.Event) {
	if s.pub == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed",
			zap.String("type", ev.Type),
			zap.String("aggregate_id", ev.AggregateID),
			zap.Error(err))
	}
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
