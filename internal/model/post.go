package model

import "time"

type Post struct {
	PostID        string    `json:"postId"`
	CreatorID     string    `json:"creatorId"`
	CommunityID   string    `json:"communityId"`
	Content       string    `json:"content"`
	ImageURL      string    `json:"imageUrl"`
	LikesCount    int64     `json:"likesCount"`
	CommentsCount int64     `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Comment struct {
	CommentID  string    `json:"commentId"`
	AuthorID   string    `json:"authorId"`
	PostID     string    `json:"postId"`
	Content    string    `json:"content"`
	LikesCount int64     `json:"likesCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// File is an uploaded attachment held in memory until moderation approves it.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *File) Empty() bool {
	return f == nil || len(f.Data) == 0
}
