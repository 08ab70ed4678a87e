package model

import "time"

// Todo is a per-day task. Priority is a dense 0-based order within
// (user, date); create appends, delete compacts, reorder shifts.
type Todo struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_todo_user_date,priority:1" json:"user_id"`
	Date      string    `gorm:"size:10;not null;index:idx_todo_user_date,priority:2" json:"date"`
	Body      string    `gorm:"size:255;not null" json:"body"`
	Done      bool      `gorm:"default:false" json:"done"`
	Public    bool      `gorm:"not null" json:"public"`
	Priority  int       `gorm:"default:0" json:"priority"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
