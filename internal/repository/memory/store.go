// Package memory is an in-process node/edge store implementing the graph repository
// contracts. Nodes are keyed by id; edges live in adjacency maps.
package memory

import (
	"sync"

	"Yam_Community/internal/model"
)

type likeKey struct {
	userID   string
	targetID string
}

type Store struct {
	mu sync.RWMutex

	users       map[string]*model.User
	communities map[string]*model.Community
	posts       map[string]*model.Post
	comments    map[string]*model.Comment

	// membership[userID][communityID]
	membership map[string]map[string]*model.Membership
	postLikes  map[likeKey]struct{}
	comLikes   map[likeKey]struct{}
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*model.User),
		communities: make(map[string]*model.Community),
		posts:       make(map[string]*model.Post),
		comments:    make(map[string]*model.Comment),
		membership:  make(map[string]map[string]*model.Membership),
		postLikes:   make(map[likeKey]struct{}),
		comLikes:    make(map[likeKey]struct{}),
	}
}

func (s *Store) Communities() *CommunityRepository  { return &CommunityRepository{s: s} }
func (s *Store) Memberships() *MembershipRepository { return &MembershipRepository{s: s} }
func (s *Store) Posts() *PostRepository             { return &PostRepository{s: s} }
func (s *Store) Comments() *CommentRepository       { return &CommentRepository{s: s} }
func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }
func (s *Store) Counters() *CounterRepository       { return &CounterRepository{s: s} }

// ensureUser mirrors MERGE on the user projection. Caller holds the write lock.
func (s *Store) ensureUser(userID string) {
	if _, ok := s.users[userID]; !ok {
		s.users[userID] = &model.User{UserID: userID}
	}
}

func (s *Store) liveCommunity(id string) (*model.Community, bool) {
	c, ok := s.communities[id]
	if !ok || c.IsDeleted {
		return nil, false
	}
	return c, true
}

// deletePostLocked removes a post with its comments and every incident like edge.
func (s *Store) deletePostLocked(postID string) {
	for id, cm := range s.comments {
		if cm.PostID == postID {
			s.deleteCommentLocked(id)
		}
	}
	for k := range s.postLikes {
		if k.targetID == postID {
			delete(s.postLikes, k)
		}
	}
	delete(s.posts, postID)
}

func (s *Store) deleteCommentLocked(commentID string) {
	for k := range s.comLikes {
		if k.targetID == commentID {
			delete(s.comLikes, k)
		}
	}
	delete(s.comments, commentID)
}

func copyCommunity(c *model.Community) model.Community {
	out := *c
	out.Members = append([]string(nil), c.Members...)
	return out
}
