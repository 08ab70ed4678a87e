package model

import "time"

// Goal is a user objective spanning a date window.
type Goal struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_goal_user" json:"user_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	StartDate string    `gorm:"size:10;not null" json:"startDate"`
	EndDate   string    `gorm:"size:10;not null" json:"endDate"`
	Private   bool      `gorm:"default:false" json:"private"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
