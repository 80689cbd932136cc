package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"Yam_Community/internal/model"
	"Yam_Community/internal/moderation"
	"Yam_Community/internal/pkg"
	"Yam_Community/internal/repository/memory"
)

var errBoom = errors.New("boom")

// stubModerator rejects any text containing a listed word.
type stubModerator struct {
	mu      sync.Mutex
	banned  []string
	err     error
	checked []moderation.Content
}

func (m *stubModerator) Validate(_ context.Context, c moderation.Content) error {
	m.mu.Lock()
	m.checked = append(m.checked, c)
	m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, w := range m.banned {
		if strings.Contains(c.Text, w) {
			return &pkg.RejectedError{Modality: pkg.ModalityText, Reason: "toxic"}
		}
	}
	return nil
}

type stubUploader struct {
	mu      sync.Mutex
	files   []string
	removed []string
}

func (u *stubUploader) Upload(_ context.Context, f *model.File) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files = append(u.files, f.Name)
	return fmt.Sprintf("/api/media/%d-%s", len(u.files), f.Name), nil
}

func (u *stubUploader) Remove(_ context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.removed = append(u.removed, url)
	return nil
}

func (u *stubUploader) removedURLs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.removed...)
}

func (u *stubUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.files)
}

type stubRoles struct {
	mu        sync.Mutex
	roles     map[string]string
	createErr error
	deleteErr error
	// hang makes every call wait for its context, like an unresponsive database.
	hang bool
}

func newStubRoles() *stubRoles {
	return &stubRoles{roles: make(map[string]string)}
}

func (r *stubRoles) CreateCommunityAdminRole(ctx context.Context, communityID, userID string) error {
	if r.hang {
		<-ctx.Done()
		return pkg.Store("role.create", ctx.Err())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.roles[communityID] = userID
	return nil
}

func (r *stubRoles) DeleteCommunityRole(ctx context.Context, communityID string) error {
	if r.hang {
		<-ctx.Done()
		return pkg.Store("role.delete", ctx.Err())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.roles, communityID)
	return nil
}

func (r *stubRoles) has(communityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.roles[communityID]
	return ok
}

type stubInvites struct {
	mu    sync.Mutex
	codes map[string]string
	seq   int
}

func newStubInvites() *stubInvites {
	return &stubInvites{codes: make(map[string]string)}
}

func (i *stubInvites) Generate(_ context.Context, communityID string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.seq++
	code := fmt.Sprintf("code%04d", i.seq)
	i.codes[code] = communityID
	return code, nil
}

func (i *stubInvites) Redeem(_ context.Context, code string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	cid, ok := i.codes[code]
	if !ok {
		return "", pkg.ErrNotFound
	}
	return cid, nil
}

func (i *stubInvites) Revoke(_ context.Context, code string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.codes[code]; !ok {
		return pkg.ErrNotFound
	}
	delete(i.codes, code)
	return nil
}

type stubQueue struct {
	mu    sync.Mutex
	tasks []model.ReconcileTask
	seq   uint64
}

func (q *stubQueue) Enqueue(_ context.Context, t *model.ReconcileTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	t.ID = q.seq
	t.Status = model.TaskPending
	q.tasks = append(q.tasks, *t)
	return nil
}

func (q *stubQueue) ListPending(_ context.Context, batchSize int) ([]model.ReconcileTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.ReconcileTask
	for _, t := range q.tasks {
		if t.Status == model.TaskPending && len(out) < batchSize {
			out = append(out, t)
		}
	}
	return out, nil
}

func (q *stubQueue) update(id uint64, fn func(*model.ReconcileTask)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.tasks {
		if q.tasks[i].ID == id {
			fn(&q.tasks[i])
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (q *stubQueue) RetryUpdate(_ context.Context, id uint64, reason string) error {
	return q.update(id, func(t *model.ReconcileTask) { t.Retry++; t.Reason = reason })
}

func (q *stubQueue) MarkDone(_ context.Context, id uint64) error {
	return q.update(id, func(t *model.ReconcileTask) { t.Status = model.TaskDone })
}

func (q *stubQueue) MarkFailed(_ context.Context, id uint64, reason string) error {
	return q.update(id, func(t *model.ReconcileTask) { t.Status = model.TaskFailed; t.Reason = reason })
}

func (q *stubQueue) snapshot() []model.ReconcileTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.ReconcileTask(nil), q.tasks...)
}

type stubPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *stubPublisher) Publish(_ context.Context, ev model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *stubPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// failingCommunities wraps the memory store and fails selected writes.
type failingCommunities struct {
	CommunityStore
	createErr error
	deleteErr error
}

func (f *failingCommunities) CreateWithAdmin(ctx context.Context, c *model.Community, admin model.Membership) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.CommunityStore.CreateWithAdmin(ctx, c, admin)
}

func (f *failingCommunities) Delete(ctx context.Context, communityID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.CommunityStore.Delete(ctx, communityID)
}

type harness struct {
	store       *memory.Store
	communities *failingCommunities
	roles       *stubRoles
	invites     *stubInvites
	tasks       *stubQueue
	moderator   *stubModerator
	uploader    *stubUploader
	events      *stubPublisher

	community *CommunityService
	posts     *PostService
	comments  *CommentService
}

func newHarness() *harness {
	h := &harness{
		store:     memory.NewStore(),
		roles:     newStubRoles(),
		invites:   newStubInvites(),
		tasks:     &stubQueue{},
		moderator: &stubModerator{banned: []string{"idiot"}},
		uploader:  &stubUploader{},
		events:    &stubPublisher{},
	}
	h.communities = &failingCommunities{CommunityStore: h.store.Communities()}
	h.community = NewCommunityService(CommunityDeps{
		Communities: h.communities,
		Memberships: h.store.Memberships(),
		Invites:     h.invites,
		Roles:       h.roles,
		Tasks:       h.tasks,
		Moderator:   h.moderator,
		Uploader:    h.uploader,
		Publisher:   h.events,
	})
	h.posts = NewPostService(PostDeps{
		Posts:     h.store.Posts(),
		Members:   h.community.Guard(),
		Moderator: h.moderator,
		Uploader:  h.uploader,
		Publisher: h.events,
	})
	h.comments = NewCommentService(CommentDeps{
		Comments:  h.store.Comments(),
		Posts:     h.store.Posts(),
		Members:   h.community.Guard(),
		Moderator: h.moderator,
		Publisher: h.events,
	})
	return h
}
