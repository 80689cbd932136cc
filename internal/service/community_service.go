package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Yam_Community/internal/metrics"
	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type CommunityDeps struct {
	Communities CommunityStore
	Memberships MembershipStore
	Invites     InviteStore
	Roles       RoleStore
	Tasks       ReconcileQueue
	Moderator   Moderator
	Uploader    Uploader
	Publisher   Publisher
	Logger      *zap.Logger
	Metrics     *metrics.Metrics

	UploadTimeout    time.Duration
	RoleStoreTimeout time.Duration
}

// CommunityService 社区生命周期：创建、编辑、删除、邀请码加入、退出、移除成员
type CommunityService struct {
	communities CommunityStore
	memberships MembershipStore
	invites     InviteStore
	roles       RoleStore
	tasks       ReconcileQueue
	guard       *Guard
	gate        contentGate
	events      eventSink
	log         *zap.Logger
	metrics     *metrics.Metrics
	roleTimeout time.Duration

	now   func() time.Time
	newID func() string
}

func NewCommunityService(d CommunityDeps) *CommunityService {
	log := orNop(d.Logger)
	return &CommunityService{
		communities: d.Communities,
		memberships: d.Memberships,
		invites:     d.Invites,
		roles:       d.Roles,
		tasks:       d.Tasks,
		guard:       NewGuard(d.Memberships),
		gate:        contentGate{moderator: d.Moderator, uploader: d.Uploader, uploadTimeout: d.UploadTimeout, log: log},
		events:      eventSink{pub: d.Publisher, log: log},
		log:         log,
		metrics:     d.Metrics,
		roleTimeout: d.RoleStoreTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (s *CommunityService) Guard() *Guard { return s.guard }

// roleCtx 身份库调用的独立超时
func (s *CommunityService) roleCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return legContext(ctx, s.roleTimeout, defaultRoleStoreTimeout)
}

func communityText(spec model.CommunitySpec) string {
	return strings.TrimSpace(spec.Name + "\n" + spec.Description)
}

// Create 名称查重 -> 审核 -> 上传横幅 -> 身份库角色 -> 图写入；图写入失败时回滚角色
func (s *CommunityService) Create(ctx context.Context, spec model.CommunitySpec, creatorID string, banner *model.File) (*model.Community, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return nil, pkg.Invalid("community name is required")
	}
	if creatorID == "" {
		return nil, pkg.Invalid("creator is required")
	}
	exists, err := s.communities.ExistsByName(ctx, spec.Name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, pkg.ErrConflict
	}

	bannerURL, err := s.gate.approve(ctx, communityText(spec), banner)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.Community{
		CommunityID: s.newID(),
		Name:        spec.Name,
		Description: spec.Description,
		BannerURL:   bannerURL,
		IsPublic:    spec.IsPublic,
		CreatorID:   creatorID,
		CreatedAt:   now,
	}
	roleCtx, cancel := s.roleCtx(ctx)
	err = s.roles.CreateCommunityAdminRole(roleCtx, c.CommunityID, creatorID)
	cancel()
	if err != nil {
		s.gate.discard(ctx, bannerURL)
		return nil, err
	}

	admin := model.Membership{
		UserID:      creatorID,
		CommunityID: c.CommunityID,
		Status:      model.StatusActive,
		Role:        model.RoleAdmin,
		JoinedAt:    now,
	}
	if graphErr := s.communities.CreateWithAdmin(ctx, c, admin); graphErr != nil {
		s.gate.discard(ctx, bannerURL)
		return nil, s.compensateRole(ctx, c.CommunityID, creatorID, graphErr)
	}

	s.events.emit(ctx, model.Event{
		Type:        model.EventCommunityCreated,
		AggregateID: c.CommunityID,
		CommunityID: c.CommunityID,
		ActorID:     creatorID,
		Payload:     map[string]any{"name": c.Name, "isPublic": c.IsPublic},
	})
	return c, nil
}

// compensateRole undoes the identity-store leg after the graph write failed.
func (s *CommunityService) compensateRole(ctx context.Context, communityID, userID string, graphErr error) error {
	roleCtx, cancel := s.roleCtx(context.WithoutCancel(ctx))
	compErr := s.roles.DeleteCommunityRole(roleCtx, communityID)
	cancel()
	if compErr == nil {
		return graphErr
	}
	s.enqueue(ctx, model.TaskRoleDelete, communityID, userID, compErr)
	return s.partialFailure(ctx, &pkg.PartialFailureError{
		Op:        "community.create",
		Succeeded: []string{"role"},
		Failed:    []string{"graph", "role.compensate"},
		Err:       errors.Join(graphErr, compErr),
	}, communityID, userID)
}

func (s *CommunityService) Edit(ctx context.Context, communityID, requesterID string, spec model.CommunitySpec, banner *model.File) (*model.Community, error) {
	if err := s.guard.RequireAdmin(ctx, requesterID, communityID); err != nil {
		return nil, err
	}
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return nil, pkg.Invalid("community name is required")
	}
	exists, err := s.communities.ExistsByName(ctx, spec.Name, communityID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, pkg.ErrConflict
	}
	bannerURL, err := s.gate.approve(ctx, communityText(spec), banner)
	if err != nil {
		return nil, err
	}
	updated, err := s.communities.Update(ctx, communityID, spec, bannerURL)
	if err != nil {
		s.gate.discard(ctx, bannerURL)
		return nil, err
	}
	return updated, nil
}

// Delete 图删除和角色删除并发执行，两边都要等到结果
func (s *CommunityService) Delete(ctx context.Context, communityID, requesterID string) error {
	if err := s.guard.RequireAdmin(ctx, requesterID, communityID); err != nil {
		return err
	}

	var (
		wg                sync.WaitGroup
		graphErr, roleErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		graphErr = s.communities.Delete(ctx, communityID)
		if errors.Is(graphErr, pkg.ErrNotFound) {
			graphErr = nil
		}
	}()
	go func() {
		defer wg.Done()
		roleCtx, cancel := s.roleCtx(ctx)
		defer cancel()
		roleErr = s.roles.DeleteCommunityRole(roleCtx, communityID)
	}()
	wg.Wait()

	switch {
	case graphErr == nil && roleErr == nil:
		s.events.emit(ctx, model.Event{
			Type:        model.EventCommunityDeleted,
			AggregateID: communityID,
			CommunityID: communityID,
			ActorID:     requesterID,
		})
		return nil
	case graphErr != nil && roleErr != nil:
		return &pkg.StoreError{Op: "community.delete", Err: errors.Join(graphErr, roleErr)}
	case graphErr != nil:
		s.enqueue(ctx, model.TaskCommunityDelete, communityID, requesterID, graphErr)
		return s.partialFailure(ctx, &pkg.PartialFailureError{
			Op: "community.delete", Succeeded: []string{"role"}, Failed: []string{"graph"}, Err: graphErr,
		}, communityID, requesterID)
	default:
		s.enqueue(ctx, model.TaskRoleDelete, communityID, requesterID, roleErr)
		return s.partialFailure(ctx, &pkg.PartialFailureError{
			Op: "community.delete", Succeeded: []string{"graph"}, Failed: []string{"role"}, Err: roleErr,
		}, communityID, requesterID)
	}
}

func (s *CommunityService) enqueue(ctx context.Context, kind, communityID, userID string, cause error) {
	task := &model.ReconcileTask{Kind: kind, CommunityID: communityID, UserID: userID, Reason: cause.Error()}
	ctx, cancel := s.roleCtx(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		s.log.Error("enqueue reconcile task failed",
			zap.String("kind", kind),
			zap.String("community_id", communityID),
			zap.Error(err))
	}
}

func (s *CommunityService) partialFailure(ctx context.Context, pf *pkg.PartialFailureError, communityID, userID string) error {
	s.metrics.PartialFailure(pf.Op)
	s.log.Error("multi-store operation partially failed",
		zap.String("op", pf.Op),
		zap.String("community_id", communityID),
		zap.String("user_id", userID),
		zap.Strings("leg", pf.Failed),
		zap.Error(pf.Err))
	s.events.emit(ctx, model.Event{
		Type:        model.EventPartialFailure,
		AggregateID: communityID,
		CommunityID: communityID,
		ActorID:     userID,
		Payload:     map[string]any{"op": pf.Op, "succeeded": pf.Succeeded, "failed": pf.Failed},
	})
	return pf
}

// JoinByCode 兑换邀请码加入社区，已是成员返回 ErrConflict
func (s *CommunityService) JoinByCode(ctx context.Context, code, userID string) (*model.Membership, error) {
	if userID == "" {
		return nil, pkg.Invalid("user is required")
	}
	communityID, err := s.invites.Redeem(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	existing, err := s.memberships.GetMembership(ctx, userID, communityID)
	if err == nil && existing.IsActive() {
		return nil, pkg.ErrConflict
	}
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	at := s.now()
	created, err := s.memberships.Join(ctx, userID, communityID, at)
	if err != nil {
		return nil, err
	}
	if !created {
		if _, err = s.communities.Get(ctx, communityID); err != nil {
			return nil, err
		}
		return nil, pkg.ErrConflict
	}

	s.events.emit(ctx, model.Event{
		Type:        model.EventMemberJoined,
		AggregateID: communityID,
		CommunityID: communityID,
		ActorID:     userID,
	})
	return &model.Membership{
		UserID:      userID,
		CommunityID: communityID,
		Status:      model.StatusActive,
		Role:        model.RoleMember,
		JoinedAt:    at,
	}, nil
}

// Leave 管理员不能退出
func (s *CommunityService) Leave(ctx context.Context, communityID, userID string) error {
	m, err := s.memberships.GetMembership(ctx, userID, communityID)
	if err != nil {
		return err
	}
	if !m.IsActive() {
		return pkg.ErrNotFound
	}
	if m.Role == model.RoleAdmin {
		return pkg.ErrConflict
	}
	removed, err := s.memberships.Remove(ctx, userID, communityID)
	if err != nil {
		return err
	}
	if !removed {
		return pkg.ErrNotFound
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventMemberLeft,
		AggregateID: communityID,
		CommunityID: communityID,
		ActorID:     userID,
	})
	return nil
}

func (s *CommunityService) RemoveMember(ctx context.Context, communityID, requesterID, memberID string) error {
	if err := s.guard.RequireAdmin(ctx, requesterID, communityID); err != nil {
		return err
	}
	if memberID == requesterID {
		return pkg.ErrConflict
	}
	m, err := s.memberships.GetMembership(ctx, memberID, communityID)
	if err != nil {
		return err
	}
	if m.Role == model.RoleAdmin {
		return pkg.ErrConflict
	}
	removed, err := s.memberships.Remove(ctx, memberID, communityID)
	if err != nil {
		return err
	}
	if !removed {
		return pkg.ErrNotFound
	}
	s.events.emit(ctx, model.Event{
		Type:        model.EventMemberRemoved,
		AggregateID: communityID,
		CommunityID: communityID,
		ActorID:     requesterID,
		Payload:     map[string]any{"memberId": memberID},
	})
	return nil
}

// ListPublic 分页和总数是两条独立查询，并发执行
func (s *CommunityService) ListPublic(ctx context.Context, page model.Page, nameFilter string) (model.Pagination[model.Community], error) {
	page = page.Normalize()
	var (
		items []model.Community
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.communities.ListPublic(gctx, nameFilter, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.communities.CountPublic(gctx, nameFilter)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Pagination[model.Community]{}, err
	}
	return model.Pagination[model.Community]{
		PageIndex: page.Number,
		PageSize:  page.Size,
		Count:     total,
		Data:      items,
	}, nil
}

func (s *CommunityService) Get(ctx context.Context, communityID string) (*model.Community, error) {
	return s.communities.Get(ctx, communityID)
}

func (s *CommunityService) ListMine(ctx context.Context, userID string) ([]model.Community, error) {
	return s.communities.ListByMember(ctx, userID)
}

func (s *CommunityService) ListMembers(ctx context.Context, communityID string) ([]model.User, error) {
	if _, err := s.communities.Get(ctx, communityID); err != nil {
		return nil, err
	}
	return s.memberships.ListMembers(ctx, communityID)
}

func (s *CommunityService) GenerateInvite(ctx context.Context, communityID, requesterID string) (string, error) {
	if err := s.guard.RequireAdmin(ctx, requesterID, communityID); err != nil {
		return "", err
	}
	return s.invites.Generate(ctx, communityID)
}

// RevokeInvite 只有邀请码所属社区的管理员可以作废
func (s *CommunityService) RevokeInvite(ctx context.Context, code, requesterID string) error {
	code = strings.TrimSpace(code)
	communityID, err := s.invites.Redeem(ctx, code)
	// 不存在的邀请码与无权限同样处理，不暴露邀请码是否存在
	if errors.Is(err, pkg.ErrNotFound) {
		return pkg.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if err = s.guard.RequireAdmin(ctx, requesterID, communityID); err != nil {
		return err
	}
	return s.invites.Revoke(ctx, code)
}

// ReconcileHandlers 补偿任务执行器，交给 ReconcileRelayer
func (s *CommunityService) ReconcileHandlers() map[string]TaskHandler {
	return map[string]TaskHandler{
		model.TaskRoleDelete: func(ctx context.Context, t *model.ReconcileTask) error {
			ctx, cancel := s.roleCtx(ctx)
			defer cancel()
			return s.roles.DeleteCommunityRole(ctx, t.CommunityID)
		},
		model.TaskCommunityDelete: func(ctx context.Context, t *model.ReconcileTask) error {
			err := s.communities.Delete(ctx, t.CommunityID)
			if errors.Is(err, pkg.ErrNotFound) {
				return nil
			}
			return err
		},
	}
}
