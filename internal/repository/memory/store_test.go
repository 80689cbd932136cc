package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func seedCommunity(t *testing.T, s *Store, id, admin string) {
	t.Helper()
	c := &model.Community{CommunityID: id, Name: "name-" + id, IsPublic: true, CreatorID: admin, CreatedAt: base}
	require.NoError(t, s.Communities().CreateWithAdmin(context.Background(), c, model.Membership{
		UserID: admin, CommunityID: id, Role: model.RoleAdmin, Status: model.StatusActive, JoinedAt: base,
	}))
}

func TestCreateWithAdmin(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")

	admin, err := s.Memberships().GetAdmin(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", admin.UserID)

	c, err := s.Communities().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, c.Members)

	exists, err := s.Communities().ExistsByName(ctx, "name-c1", "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.Communities().ExistsByName(ctx, "name-c1", "c1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJoinIsConditional(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")

	created, err := s.Memberships().Join(ctx, "u2", "c1", base)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Memberships().Join(ctx, "u2", "c1", base)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = s.Memberships().Join(ctx, "u2", "missing", base)
	require.NoError(t, err)
	assert.False(t, created)

	c, _ := s.Communities().Get(ctx, "c1")
	assert.Equal(t, []string{"u1", "u2"}, c.Members)
}

func TestConcurrentJoinCreatesOneEdge(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Memberships().Join(ctx, "u2", "c1", base)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	members, _ := s.Memberships().ListMembers(ctx, "c1")
	assert.Len(t, members, 2)
}

func TestRemoveSyncsMemberList(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	_, _ = s.Memberships().Join(ctx, "u2", "c1", base)

	removed, err := s.Memberships().Remove(ctx, "u2", "c1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Memberships().Remove(ctx, "u2", "c1")
	require.NoError(t, err)
	assert.False(t, removed)

	c, _ := s.Communities().Get(ctx, "c1")
	assert.Equal(t, []string{"u1"}, c.Members)
	_, err = s.Memberships().GetMembership(ctx, "u2", "c1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestListMembersOrderedByUsername(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Users().Upsert(ctx, model.User{UserID: "u1", Username: "zed"}))
	require.NoError(t, s.Users().Upsert(ctx, model.User{UserID: "u2", Username: "amy"}))
	seedCommunity(t, s, "c1", "u1")
	_, _ = s.Memberships().Join(ctx, "u2", "c1", base)

	members, err := s.Memberships().ListMembers(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "amy", members[0].Username)
	assert.Equal(t, "zed", members[1].Username)
}

func TestDeleteCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	require.NoError(t, s.Posts().Create(ctx, &model.Post{PostID: "p1", CommunityID: "c1", CreatorID: "u1", CreatedAt: base}))
	require.NoError(t, s.Comments().Create(ctx, &model.Comment{CommentID: "cm1", PostID: "p1", AuthorID: "u1", CreatedAt: base}))
	_, err := s.Posts().ToggleLike(ctx, "u1", "p1")
	require.NoError(t, err)

	require.NoError(t, s.Communities().Delete(ctx, "c1"))
	assert.ErrorIs(t, s.Communities().Delete(ctx, "c1"), pkg.ErrNotFound)

	_, err = s.Posts().Get(ctx, "p1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = s.Comments().Get(ctx, "cm1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Empty(t, s.postLikes)
	_, err = s.Memberships().GetMembership(ctx, "u1", "c1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	mine, _ := s.Communities().ListByMember(ctx, "u1")
	assert.Empty(t, mine)
}

func TestToggleLikeIsInvolution(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	require.NoError(t, s.Posts().Create(ctx, &model.Post{PostID: "p1", CommunityID: "c1", CreatorID: "u1"}))

	first, err := s.Posts().ToggleLike(ctx, "u2", "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ToggleResult{Liked: true, LikesCount: 1}, first)

	second, err := s.Posts().ToggleLike(ctx, "u2", "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ToggleResult{Liked: false, LikesCount: 0}, second)

	liked, _ := s.Posts().HasLiked(ctx, "u2", "p1")
	assert.False(t, liked)
}

func TestConcurrentTogglesKeepCounterExact(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	require.NoError(t, s.Posts().Create(ctx, &model.Post{PostID: "p1", CommunityID: "c1", CreatorID: "u1"}))

	var wg sync.WaitGroup
	for i := 0; i < 51; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Posts().ToggleLike(ctx, "u2", "p1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	p, _ := s.Posts().Get(ctx, "p1")
	assert.Equal(t, int64(1), p.LikesCount)
	liked, _ := s.Posts().HasLiked(ctx, "u2", "p1")
	assert.True(t, liked)
}

func TestListPostsPaginates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	seedCommunity(t, s, "c2", "u1")
	for i := 1; i <= 25; i++ {
		require.NoError(t, s.Posts().Create(ctx, &model.Post{
			PostID:      fmt.Sprintf("p%02d", i),
			CommunityID: "c1",
			CreatorID:   "u1",
			Content:     fmt.Sprintf("Post number %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Posts().Create(ctx, &model.Post{PostID: "other", CommunityID: "c2", CreatorID: "u1", CreatedAt: base}))

	items, total, err := s.Posts().List(ctx, model.PostQuery{CommunityID: "c1", Sort: model.SortAsc, Page: model.Page{Number: 2, Size: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, items, 10)
	assert.Equal(t, "p11", items[0].PostID)
	assert.Equal(t, "p20", items[9].PostID)

	items, total, err = s.Posts().List(ctx, model.PostQuery{CommunityID: "c1", Sort: model.SortDesc, Page: model.Page{Number: 1, Size: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Equal(t, "p25", items[0].PostID)

	items, total, err = s.Posts().List(ctx, model.PostQuery{CommunityID: "c1", Search: "NUMBER 1", Page: model.Page{Number: 1, Size: 50}})
	require.NoError(t, err)
	assert.Equal(t, int64(11), total) // 1, 10-19
	assert.Len(t, items, 11)

	items, _, err = s.Posts().List(ctx, model.PostQuery{CommunityID: "c1", Page: model.Page{Number: 9, Size: 10}})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCommentCounters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	require.NoError(t, s.Posts().Create(ctx, &model.Post{PostID: "p1", CommunityID: "c1", CreatorID: "u1"}))
	require.NoError(t, s.Comments().Create(ctx, &model.Comment{CommentID: "cm1", PostID: "p1", AuthorID: "u2"}))
	require.NoError(t, s.Comments().Create(ctx, &model.Comment{CommentID: "cm2", PostID: "p1", AuthorID: "u2"}))

	p, _ := s.Posts().Get(ctx, "p1")
	assert.Equal(t, int64(2), p.CommentsCount)

	require.NoError(t, s.Comments().Delete(ctx, "cm1"))
	p, _ = s.Posts().Get(ctx, "p1")
	assert.Equal(t, int64(1), p.CommentsCount)

	assert.ErrorIs(t, s.Comments().Create(ctx, &model.Comment{CommentID: "x", PostID: "missing"}), pkg.ErrNotFound)
}

func TestRepairCounters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	require.NoError(t, s.Posts().Create(ctx, &model.Post{PostID: "p1", CommunityID: "c1", CreatorID: "u1"}))
	require.NoError(t, s.Posts().Create(ctx, &model.Post{PostID: "p2", CommunityID: "c1", CreatorID: "u1"}))
	require.NoError(t, s.Comments().Create(ctx, &model.Comment{CommentID: "cm1", PostID: "p1", AuthorID: "u1"}))
	_, _ = s.Comments().ToggleLike(ctx, "u1", "cm1")

	s.posts["p1"].LikesCount = 7
	s.posts["p2"].CommentsCount = 3
	s.comments["cm1"].LikesCount = 0

	n, err := s.Counters().RepairPostCounters(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Counters().RepairPostCounters(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Counters().RepairCommentCounters(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p1, _ := s.Posts().Get(ctx, "p1")
	p2, _ := s.Posts().Get(ctx, "p2")
	cm1, _ := s.Comments().Get(ctx, "cm1")
	assert.Equal(t, int64(0), p1.LikesCount)
	assert.Equal(t, int64(1), p1.CommentsCount)
	assert.Equal(t, int64(0), p2.CommentsCount)
	assert.Equal(t, int64(1), cm1.LikesCount)
}

func TestListPublicFiltersAndCounts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i, name := range []string{"Hiking Club", "Chess", "Hiking South"} {
		c := &model.Community{CommunityID: fmt.Sprintf("c%d", i), Name: name, IsPublic: true, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, s.Communities().CreateWithAdmin(ctx, c, model.Membership{UserID: "u1", Role: model.RoleAdmin, Status: model.StatusActive}))
	}
	private := &model.Community{CommunityID: "cp", Name: "Hiking Secret", CreatedAt: base}
	require.NoError(t, s.Communities().CreateWithAdmin(ctx, private, model.Membership{UserID: "u1", Role: model.RoleAdmin, Status: model.StatusActive}))

	list, err := s.Communities().ListPublic(ctx, "Hiking", model.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Hiking South", list[0].Name)

	total, err := s.Communities().CountPublic(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestCommunityNameIsUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCommunity(t, s, "c1", "u1")
	seedCommunity(t, s, "c2", "u1")

	dup := &model.Community{CommunityID: "c3", Name: "name-c1", CreatorID: "u2", CreatedAt: base}
	err := s.Communities().CreateWithAdmin(ctx, dup, model.Membership{UserID: "u2", CommunityID: "c3", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, pkg.ErrConflict)
	_, err = s.Communities().Get(ctx, "c3")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = s.Communities().Update(ctx, "c2", model.CommunitySpec{Name: "name-c1"}, "")
	assert.ErrorIs(t, err, pkg.ErrConflict)
	// 改回自己的名字不算冲突
	_, err = s.Communities().Update(ctx, "c2", model.CommunitySpec{Name: "name-c2", IsPublic: true}, "")
	assert.NoError(t, err)
}
