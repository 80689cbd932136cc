package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"Yam_Community/internal/model"
)

// props reads the node bound to key, falling back to a plain map projection.
func props(record *neo4j.Record, key string) (map[string]any, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil, false
	}
	switch v := val.(type) {
	case neo4j.Node:
		return v.Props, true
	case map[string]any:
		return v, true
	}
	return nil, false
}

func getString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func getInt64(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func getBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func getTime(m map[string]any, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case neo4j.LocalDateTime:
		return v.Time()
	case string:
		t, _ := time.Parse(time.RFC3339Nano, v)
		return t
	}
	return time.Time{}
}

func getStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func recordInt64(record *neo4j.Record, key string) int64 {
	val, _ := record.Get(key)
	return getInt64(map[string]any{key: val}, key)
}

func recordBool(record *neo4j.Record, key string) bool {
	val, _ := record.Get(key)
	b, _ := val.(bool)
	return b
}

func communityFrom(m map[string]any) model.Community {
	return model.Community{
		CommunityID: getString(m, "communityId"),
		Name:        getString(m, "name"),
		Description: getString(m, "description"),
		BannerURL:   getString(m, "bannerUrl"),
		IsPublic:    getBool(m, "isPublic"),
		IsDeleted:   getBool(m, "isDeleted"),
		CreatorID:   getString(m, "creatorId"),
		CreatedAt:   getTime(m, "createdAt"),
		Members:     getStrings(m, "members"),
	}
}

func communityProps(c *model.Community) map[string]any {
	members := c.Members
	if members == nil {
		members = []string{}
	}
	return map[string]any{
		"communityId": c.CommunityID,
		"name":        c.Name,
		"description": c.Description,
		"bannerUrl":   c.BannerURL,
		"isPublic":    c.IsPublic,
		"isDeleted":   c.IsDeleted,
		"creatorId":   c.CreatorID,
		"createdAt":   c.CreatedAt,
		"members":     members,
	}
}

func userFrom(m map[string]any) model.User {
	return model.User{
		UserID:   getString(m, "userId"),
		Username: getString(m, "username"),
		Email:    getString(m, "email"),
	}
}

func membershipFrom(m map[string]any, userID, communityID string) model.Membership {
	return model.Membership{
		UserID:      userID,
		CommunityID: communityID,
		Status:      getString(m, "status"),
		Role:        getString(m, "role"),
		JoinedAt:    getTime(m, "joinedAt"),
	}
}

func postFrom(m map[string]any) model.Post {
	return model.Post{
		PostID:        getString(m, "postId"),
		CreatorID:     getString(m, "creatorId"),
		CommunityID:   getString(m, "communityId"),
		Content:       getString(m, "content"),
		ImageURL:      getString(m, "imageUrl"),
		LikesCount:    getInt64(m, "likesCount"),
		CommentsCount: getInt64(m, "commentsCount"),
		CreatedAt:     getTime(m, "createdAt"),
	}
}

func postProps(p *model.Post) map[string]any {
	return map[string]any{
		"postId":        p.PostID,
		"creatorId":     p.CreatorID,
		"communityId":   p.CommunityID,
		"content":       p.Content,
		"imageUrl":      p.ImageURL,
		"likesCount":    p.LikesCount,
		"commentsCount": p.CommentsCount,
		"createdAt":     p.CreatedAt,
	}
}

func commentFrom(m map[string]any) model.Comment {
	return model.Comment{
		CommentID:  getString(m, "commentId"),
		AuthorID:   getString(m, "authorId"),
		PostID:     getString(m, "postId"),
		Content:    getString(m, "content"),
		LikesCount: getInt64(m, "likesCount"),
		CreatedAt:  getTime(m, "createdAt"),
	}
}

func commentProps(c *model.Comment) map[string]any {
	return map[string]any{
		"commentId":  c.CommentID,
		"authorId":   c.AuthorID,
		"postId":     c.PostID,
		"content":    c.Content,
		"likesCount": c.LikesCount,
		"createdAt":  c.CreatedAt,
	}
}

// nodesFrom decodes a collected list of nodes.
func nodesFrom(record *neo4j.Record, key string) []map[string]any {
	val, ok := record.Get(key)
	if !ok {
		return nil
	}
	list, _ := val.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		switch n := item.(type) {
		case neo4j.Node:
			out = append(out, n.Props)
		case map[string]any:
			out = append(out, n)
		}
	}
	return out
}

func relProps(val any) map[string]any {
	switch v := val.(type) {
	case neo4j.Relationship:
		return v.Props
	case map[string]any:
		return v
	}
	return map[string]any{}
}
