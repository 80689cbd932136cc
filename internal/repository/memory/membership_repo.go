package memory

import (
	"context"
	"sort"
	"time"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type MembershipRepository struct {
	s *Store
}

func (r *MembershipRepository) GetMembership(_ context.Context, userID, communityID string) (*model.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.liveCommunity(communityID); !ok {
		return nil, pkg.ErrNotFound
	}
	m, ok := r.s.membership[userID][communityID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	out := *m
	return &out, nil
}

func (r *MembershipRepository) GetAdmin(_ context.Context, communityID string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.liveCommunity(communityID); !ok {
		return nil, pkg.ErrNotFound
	}
	for uid, byCommunity := range r.s.membership {
		if m, ok := byCommunity[communityID]; ok && m.IsAdmin() {
			u := *r.s.users[uid]
			return &u, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *MembershipRepository) Join(_ context.Context, userID, communityID string, at time.Time) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.liveCommunity(communityID)
	if !ok {
		return false, nil
	}
	if _, exists := s.membership[userID][communityID]; exists {
		return false, nil
	}
	s.ensureUser(userID)
	if s.membership[userID] == nil {
		s.membership[userID] = make(map[string]*model.Membership)
	}
	s.membership[userID][communityID] = &model.Membership{
		UserID:      userID,
		CommunityID: communityID,
		Status:      model.StatusActive,
		Role:        model.RoleMember,
		JoinedAt:    at,
	}
	c.Members = append(c.Members, userID)
	return true, nil
}

func (r *MembershipRepository) Remove(_ context.Context, userID, communityID string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.membership[userID][communityID]; !ok {
		return false, nil
	}
	delete(s.membership[userID], communityID)
	if c, ok := s.communities[communityID]; ok {
		kept := c.Members[:0]
		for _, id := range c.Members {
			if id != userID {
				kept = append(kept, id)
			}
		}
		c.Members = kept
	}
	return true, nil
}

func (r *MembershipRepository) ListMembers(_ context.Context, communityID string) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.User{}
	if _, ok := r.s.liveCommunity(communityID); !ok {
		return out, nil
	}
	for uid, byCommunity := range r.s.membership {
		if m, ok := byCommunity[communityID]; ok && m.IsActive() {
			out = append(out, *r.s.users[uid])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
