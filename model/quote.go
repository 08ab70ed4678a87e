package model

import "time"

// Quote is a curated saying shown on the home screen.
type Quote struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Body     string `gorm:"type:text;not null" json:"body"`
	Author   string `gorm:"size:64" json:"author"`
	ImageURL string `gorm:"size:255" json:"image"`
}

// TodayPick is a highlight photo attached to a diary entry.
type TodayPick struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DiaryID   int64     `gorm:"not null;index:idx_pick_diary" json:"diary_id"`
	Date      string    `gorm:"size:10;not null" json:"date"`
	Body      string    `gorm:"size:255" json:"body"`
	ImageURL  string    `gorm:"size:255" json:"image"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
