package model

import "time"

// Comment settings / content sharing levels.
const (
	SharePublic  = "PUBLIC"
	ShareFriends = "FRIENDS"
	ShareOff     = "OFF"
)

// Post is a goal update shared to the feed.
type Post struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64     `gorm:"not null;index:idx_post_user" json:"user_id"`
	GoalID          int64     `gorm:"not null;index:idx_post_goal" json:"goal_id"`
	Body            string    `gorm:"type:text" json:"body"`
	PhotoURL        string    `gorm:"size:255" json:"photo"`
	Private         bool      `gorm:"default:false" json:"private"`
	CommentSettings string    `gorm:"size:10;default:PUBLIC" json:"commentSettings"`
	CreatedAt       time.Time `gorm:"index:idx_post_created;autoCreateTime" json:"created_at"`
}

// PostLike links a user to a post they liked.
type PostLike struct {
	PostID    int64     `gorm:"primaryKey" json:"post_id"`
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_comment_user" json:"user_id"`
	PostID    int64     `gorm:"not null;index:idx_comment_post" json:"post_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
