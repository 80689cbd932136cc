package memory

import (
	"context"
	"sort"
	"strings"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type CommunityRepository struct {
	s *Store
}

func (r *CommunityRepository) CreateWithAdmin(_ context.Context, c *model.Community, admin model.Membership) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communities[c.CommunityID]; ok || s.nameTakenLocked(c.Name, "") {
		return pkg.ErrConflict
	}
	c.Members = []string{admin.UserID}
	stored := copyCommunity(c)
	s.communities[c.CommunityID] = &stored
	s.ensureUser(admin.UserID)
	if s.membership[admin.UserID] == nil {
		s.membership[admin.UserID] = make(map[string]*model.Membership)
	}
	m := admin
	s.membership[admin.UserID][c.CommunityID] = &m
	return nil
}

func (r *CommunityRepository) Get(_ context.Context, communityID string) (*model.Community, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.liveCommunity(communityID)
	if !ok {
		return nil, pkg.ErrNotFound
	}
	out := copyCommunity(c)
	return &out, nil
}

func (r *CommunityRepository) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.nameTakenLocked(name, excludeID), nil
}

// nameTakenLocked 调用方需持有锁
func (s *Store) nameTakenLocked(name, excludeID string) bool {
	for id, c := range s.communities {
		if !c.IsDeleted && id != excludeID && c.Name == name {
			return true
		}
	}
	return false
}

func (r *CommunityRepository) Update(_ context.Context, communityID string, spec model.CommunitySpec, bannerURL string) (*model.Community, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.liveCommunity(communityID)
	if !ok {
		return nil, pkg.ErrNotFound
	}
	if r.s.nameTakenLocked(spec.Name, communityID) {
		return nil, pkg.ErrConflict
	}
	c.Name = spec.Name
	c.Description = spec.Description
	c.IsPublic = spec.IsPublic
	if bannerURL != "" {
		c.BannerURL = bannerURL
	}
	out := copyCommunity(c)
	return &out, nil
}

func (r *CommunityRepository) Delete(_ context.Context, communityID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communities[communityID]; !ok {
		return pkg.ErrNotFound
	}
	for id, p := range s.posts {
		if p.CommunityID == communityID {
			s.deletePostLocked(id)
		}
	}
	for _, byCommunity := range s.membership {
		delete(byCommunity, communityID)
	}
	delete(s.communities, communityID)
	return nil
}

func (r *CommunityRepository) public(nameFilter string) []model.Community {
	var out []model.Community
	for _, c := range r.s.communities {
		if c.IsDeleted || !c.IsPublic {
			continue
		}
		if nameFilter != "" && !strings.Contains(c.Name, nameFilter) {
			continue
		}
		out = append(out, copyCommunity(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CommunityID > out[j].CommunityID
	})
	return out
}

func (r *CommunityRepository) ListPublic(_ context.Context, nameFilter string, page model.Page) ([]model.Community, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.public(nameFilter), page), nil
}

func (r *CommunityRepository) CountPublic(_ context.Context, nameFilter string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.public(nameFilter))), nil
}

func (r *CommunityRepository) ListByMember(_ context.Context, userID string) ([]model.Community, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Community{}
	for cid, m := range r.s.membership[userID] {
		if !m.IsActive() {
			continue
		}
		if c, ok := r.s.liveCommunity(cid); ok {
			out = append(out, copyCommunity(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// window applies skip/limit to an already ordered slice.
func window[T any](all []T, page model.Page) []T {
	page = page.Normalize()
	start := page.Skip()
	if start >= len(all) {
		return []T{}
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return append([]T{}, all[start:end]...)
}
