package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

func createCommunity(t *testing.T, h *harness, name, admin string) *model.Community {
	t.Helper()
	c, err := h.community.Create(context.Background(), model.CommunitySpec{Name: name, Description: "desc", IsPublic: true}, admin, nil)
	require.NoError(t, err)
	return c
}

func joinMember(t *testing.T, h *harness, c *model.Community, admin, user string) {
	t.Helper()
	code, err := h.community.GenerateInvite(context.Background(), c.CommunityID, admin)
	require.NoError(t, err)
	_, err = h.community.JoinByCode(context.Background(), code, user)
	require.NoError(t, err)
}

func TestCreateCommunityMakesCreatorAdmin(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c, err := h.community.Create(ctx, model.CommunitySpec{Name: "Hiking Club", IsPublic: true}, "alice",
		&model.File{Name: "banner.png", ContentType: "image/png", Data: []byte{1, 2, 3}})
	require.NoError(t, err)

	assert.NotEmpty(t, c.CommunityID)
	assert.Equal(t, "alice", c.CreatorID)
	assert.NotEmpty(t, c.BannerURL)
	assert.Equal(t, 1, h.uploader.count())
	assert.True(t, h.roles.has(c.CommunityID))

	admin, err := h.community.Guard().GetAdmin(ctx, c.CommunityID)
	require.NoError(t, err)
	assert.Equal(t, "alice", admin.UserID)
	assert.Contains(t, h.events.types(), model.EventCommunityCreated)
}

func TestCreateCommunityDuplicateName(t *testing.T) {
	h := newHarness()
	createCommunity(t, h, "Hiking Club", "alice")

	_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "Hiking Club"}, "bob", nil)
	assert.ErrorIs(t, err, pkg.ErrConflict)
	assert.Len(t, h.roles.roles, 1)
}

func TestCreateCommunityRejectedBeforeAnyWrite(t *testing.T) {
	h := newHarness()
	_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "idiot club"}, "alice",
		&model.File{Name: "b.png", Data: []byte{1}})

	var rejected *pkg.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, pkg.ModalityText, rejected.Modality)
	assert.Zero(t, h.uploader.count())
	assert.Empty(t, h.roles.roles)
}

func TestCreateCommunityRequiresName(t *testing.T) {
	h := newHarness()
	_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "   "}, "alice", nil)
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)
}

func TestCreateCommunityGraphFailureRollsBackRole(t *testing.T) {
	h := newHarness()
	h.communities.createErr = pkg.Store("community.create", errBoom)

	_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "Chess"}, "alice", nil)
	assert.ErrorIs(t, err, pkg.ErrStoreFailure)
	assert.NotErrorIs(t, err, pkg.ErrPartialFailure)
	assert.Empty(t, h.roles.roles)
	assert.Empty(t, h.tasks.snapshot())
}

func TestCreateCommunityCompensationFailureEnqueuesTask(t *testing.T) {
	h := newHarness()
	h.communities.createErr = pkg.Store("community.create", errBoom)
	h.roles.deleteErr = errBoom

	_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "Chess"}, "alice", nil)
	var pf *pkg.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "community.create", pf.Op)

	tasks := h.tasks.snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskRoleDelete, tasks[0].Kind)
	assert.Equal(t, "alice", tasks[0].UserID)
	assert.Contains(t, h.events.types(), model.EventPartialFailure)
}

func TestEditCommunity(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	createCommunity(t, h, "Go", "bob")

	_, err := h.community.Edit(ctx, c.CommunityID, "bob", model.CommunitySpec{Name: "Chess 2"}, nil)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = h.community.Edit(ctx, c.CommunityID, "alice", model.CommunitySpec{Name: "Go"}, nil)
	assert.ErrorIs(t, err, pkg.ErrConflict)

	updated, err := h.community.Edit(ctx, c.CommunityID, "alice", model.CommunitySpec{Name: "Chess", Description: "new"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Description)
}

func TestJoinByCode(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")

	_, err := h.community.GenerateInvite(ctx, c.CommunityID, "bob")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	code, err := h.community.GenerateInvite(ctx, c.CommunityID, "alice")
	require.NoError(t, err)

	m, err := h.community.JoinByCode(ctx, code, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, m.Role)
	assert.Equal(t, model.StatusActive, m.Status)

	_, err = h.community.JoinByCode(ctx, code, "bob")
	assert.ErrorIs(t, err, pkg.ErrConflict)
	_, err = h.community.JoinByCode(ctx, code, "alice")
	assert.ErrorIs(t, err, pkg.ErrConflict)
	_, err = h.community.JoinByCode(ctx, "missing", "carol")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	got, err := h.community.Get(ctx, c.CommunityID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, got.Members)
}

func TestJoinByCodeForDeletedCommunity(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	code, err := h.community.GenerateInvite(ctx, c.CommunityID, "alice")
	require.NoError(t, err)
	require.NoError(t, h.community.Delete(ctx, c.CommunityID, "alice"))

	_, err = h.community.JoinByCode(ctx, code, "bob")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestLeave(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	joinMember(t, h, c, "alice", "bob")

	assert.ErrorIs(t, h.community.Leave(ctx, c.CommunityID, "alice"), pkg.ErrConflict)
	require.NoError(t, h.community.Leave(ctx, c.CommunityID, "bob"))
	assert.ErrorIs(t, h.community.Leave(ctx, c.CommunityID, "bob"), pkg.ErrNotFound)

	ok, err := h.community.Guard().IsMember(ctx, "bob", c.CommunityID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveMember(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	joinMember(t, h, c, "alice", "bob")
	joinMember(t, h, c, "alice", "carol")

	assert.ErrorIs(t, h.community.RemoveMember(ctx, c.CommunityID, "bob", "carol"), pkg.ErrUnauthorized)
	assert.ErrorIs(t, h.community.RemoveMember(ctx, c.CommunityID, "alice", "alice"), pkg.ErrConflict)
	assert.ErrorIs(t, h.community.RemoveMember(ctx, c.CommunityID, "alice", "dave"), pkg.ErrNotFound)
	require.NoError(t, h.community.RemoveMember(ctx, c.CommunityID, "alice", "carol"))

	members, err := h.community.ListMembers(ctx, c.CommunityID)
	require.NoError(t, err)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}

func TestRevokeInvite(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	code, err := h.community.GenerateInvite(ctx, c.CommunityID, "alice")
	require.NoError(t, err)

	assert.ErrorIs(t, h.community.RevokeInvite(ctx, code, "bob"), pkg.ErrUnauthorized)
	require.NoError(t, h.community.RevokeInvite(ctx, code, "alice"))
	_, err = h.community.JoinByCode(ctx, code, "bob")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestRevokeInviteHidesUnknownCodes(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	code, err := h.community.GenerateInvite(ctx, c.CommunityID, "alice")
	require.NoError(t, err)

	// 存在与不存在的邀请码对非管理员返回同样的错误
	known := h.community.RevokeInvite(ctx, code, "mallory")
	unknown := h.community.RevokeInvite(ctx, "no-such-code", "mallory")
	assert.ErrorIs(t, known, pkg.ErrUnauthorized)
	assert.ErrorIs(t, unknown, pkg.ErrUnauthorized)
	assert.NotErrorIs(t, unknown, pkg.ErrNotFound)

	_, err = h.community.JoinByCode(ctx, code, "bob")
	assert.NoError(t, err)
}

func TestDeleteCommunity(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	joinMember(t, h, c, "alice", "bob")
	p, err := h.posts.Create(ctx, c.CommunityID, "bob", "opening theory", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, h.community.Delete(ctx, c.CommunityID, "bob"), pkg.ErrUnauthorized)
	require.NoError(t, h.community.Delete(ctx, c.CommunityID, "alice"))

	_, err = h.community.Get(ctx, c.CommunityID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = h.posts.Get(ctx, p.PostID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.False(t, h.roles.has(c.CommunityID))
	assert.Contains(t, h.events.types(), model.EventCommunityDeleted)
}

func TestDeleteCommunityPartialFailure(t *testing.T) {
	cases := []struct {
		name      string
		graphErr  error
		roleErr   error
		wantKind  string
		wantLeg   string
		roleAfter bool
	}{
		{name: "graph leg fails", graphErr: pkg.Store("community.delete", errBoom), wantKind: model.TaskCommunityDelete, wantLeg: "graph"},
		{name: "role leg fails", roleErr: errBoom, wantKind: model.TaskRoleDelete, wantLeg: "role", roleAfter: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			ctx := context.Background()
			c := createCommunity(t, h, "Chess", "alice")
			h.communities.deleteErr = tc.graphErr
			h.roles.deleteErr = tc.roleErr

			err := h.community.Delete(ctx, c.CommunityID, "alice")
			var pf *pkg.PartialFailureError
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, []string{tc.wantLeg}, pf.Failed)
			assert.Equal(t, tc.roleAfter, h.roles.has(c.CommunityID))

			tasks := h.tasks.snapshot()
			require.Len(t, tasks, 1)
			assert.Equal(t, tc.wantKind, tasks[0].Kind)
			assert.Equal(t, c.CommunityID, tasks[0].CommunityID)
		})
	}
}

func TestDeleteCommunityBothLegsFail(t *testing.T) {
	h := newHarness()
	c := createCommunity(t, h, "Chess", "alice")
	h.communities.deleteErr = pkg.Store("community.delete", errBoom)
	h.roles.deleteErr = errBoom

	err := h.community.Delete(context.Background(), c.CommunityID, "alice")
	assert.ErrorIs(t, err, pkg.ErrStoreFailure)
	assert.NotErrorIs(t, err, pkg.ErrPartialFailure)
	assert.Empty(t, h.tasks.snapshot())
}

func TestListPublicPaginates(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		createCommunity(t, h, fmt.Sprintf("club-%02d", i), "alice")
	}
	_, err := h.community.Create(ctx, model.CommunitySpec{Name: "hidden club"}, "alice", nil)
	require.NoError(t, err)

	page, err := h.community.ListPublic(ctx, model.Page{Number: 3, Size: 10}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(23), page.Count)
	assert.Equal(t, 3, page.PageIndex)
	assert.Len(t, page.Data, 3)

	page, err = h.community.ListPublic(ctx, model.Page{}, "club-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), page.Count)
	assert.Equal(t, model.DefaultPageSize, page.PageSize)
}

func TestListMine(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := createCommunity(t, h, "Chess", "alice")
	createCommunity(t, h, "Go", "carol")
	joinMember(t, h, a, "alice", "bob")

	mine, err := h.community.ListMine(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.CommunityID, mine[0].CommunityID)
}

func TestReconcileHandlers(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := createCommunity(t, h, "Chess", "alice")
	handlers := h.community.ReconcileHandlers()

	require.NoError(t, handlers[model.TaskCommunityDelete](ctx, &model.ReconcileTask{CommunityID: c.CommunityID}))
	require.NoError(t, handlers[model.TaskCommunityDelete](ctx, &model.ReconcileTask{CommunityID: c.CommunityID}))
	require.NoError(t, handlers[model.TaskRoleDelete](ctx, &model.ReconcileTask{CommunityID: c.CommunityID}))
	assert.False(t, h.roles.has(c.CommunityID))
}

func TestDeleteCommunityRoleLegTimesOut(t *testing.T) {
	h := newHarness()
	c := createCommunity(t, h, "Chess", "alice")
	h.community.roleTimeout = 20 * time.Millisecond
	h.roles.hang = true

	done := make(chan error, 1)
	go func() { done <- h.community.Delete(context.Background(), c.CommunityID, "alice") }()

	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delete did not return while the role store hung")
	}
	var pf *pkg.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, []string{"role"}, pf.Failed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = h.community.Get(context.Background(), c.CommunityID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	tasks := h.tasks.snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskRoleDelete, tasks[0].Kind)
}

func TestCreateCommunityRoleTimeoutDiscardsBanner(t *testing.T) {
	h := newHarness()
	h.community.roleTimeout = 20 * time.Millisecond
	h.roles.hang = true

	_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "Chess"}, "alice",
		&model.File{Name: "b.png", Data: []byte{1}})
	assert.ErrorIs(t, err, pkg.ErrStoreFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, h.uploader.removedURLs(), 1)

	exists, err := h.store.Communities().ExistsByName(context.Background(), "Chess", "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateCommunityGraphFailureDiscardsBanner(t *testing.T) {
	h := newHarness()
	h.communities.createErr = pkg.Store("community.create", errBoom)

	_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "Chess"}, "alice",
		&model.File{Name: "b.png", Data: []byte{1}})
	require.Error(t, err)
	require.Equal(t, 1, h.uploader.count())
	removed := h.uploader.removedURLs()
	require.Len(t, removed, 1)
	assert.Contains(t, removed[0], "b.png")
}

func TestConcurrentCreateSameNameOneWins(t *testing.T) {
	h := newHarness()
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.community.Create(context.Background(), model.CommunitySpec{Name: "Chess"}, fmt.Sprintf("u%d", i), nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, pkg.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
	// 落败方的角色已补偿删除
	h.roles.mu.Lock()
	defer h.roles.mu.Unlock()
	assert.Len(t, h.roles.roles, 1)
}
