package model

import "time"

// User represents an account holder.
type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Email         string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Nickname      string    `gorm:"uniqueIndex;size:32;not null" json:"nickname"`
	PasswordHash  string    `gorm:"size:72;not null" json:"-"`
	Phone         string    `gorm:"size:20" json:"phone"`
	Body          string    `gorm:"type:text" json:"body"`
	PhotoURL      string    `gorm:"size:255" json:"photo"`
	BackgroundURL string    `gorm:"size:255" json:"background"`
	Private       bool      `gorm:"default:false" json:"private"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Profile is the public projection of a user used in list enrichment.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	PhotoURL string `json:"photo"`
}

// PublicProfile returns the user's list-friendly projection.
func (u *User) PublicProfile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Nickname: u.Nickname, PhotoURL: u.PhotoURL}
}
