package model

import (
	"time"

	"gorm.io/datatypes"
)

// Diary is one journal entry; a user keeps at most one per date.
// Date is an ISO day ("2006-01-02") so month lookups are plain prefix ranges.
type Diary struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64          `gorm:"not null;uniqueIndex:idx_diary_user_date,priority:1" json:"user_id"`
	Date       string         `gorm:"size:10;not null;uniqueIndex:idx_diary_user_date,priority:2" json:"date"`
	Title      string         `gorm:"size:100" json:"title"`
	Body       string         `gorm:"type:text" json:"body"`
	Mood       string         `gorm:"size:24" json:"mood"`
	Feelings   datatypes.JSON `json:"feelings"`   // array of feeling tags
	Companions string         `gorm:"size:255" json:"companions"` // comma-separated
	StartSleep string         `gorm:"size:5" json:"startSleep"`   // "23:30"
	EndSleep   string         `gorm:"size:5" json:"endSleep"`
	Remember   bool           `gorm:"default:false" json:"remember"`
	PhotoURLs  datatypes.JSON `json:"photos"` // array of URLs (upload storage is external)
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
