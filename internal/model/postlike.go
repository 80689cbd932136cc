package model

// LikeTarget 点赞目标类型
type LikeTarget string

const (
	LikeTargetPost    LikeTarget = "post"
	LikeTargetComment LikeTarget = "comment"
)

// ToggleResult reports which way a like toggle went and the counter after it.
type ToggleResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

func (r ToggleResult) Action() string {
	if r.Liked {
		return "liked"
	}
	return "unliked"
}
