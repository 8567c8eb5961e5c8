package models

import "time"

// Post is a board entry. Title and author are reduced to plain text; the body
// keeps a small set of formatting tags.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Author    string    `gorm:"size:64;not null;serializer:sanitize" sanitize:"strip" json:"author"`
	Title     string    `gorm:"size:255;not null;serializer:sanitize" sanitize:"strip" json:"title"`
	Content   string    `gorm:"type:text;not null;serializer:sanitize" sanitize:"tags=a,p,br,em,strong,ul,ol,li,blockquote,code,pre;attrs=href,title" json:"content"`
	Category  string    `gorm:"size:32;default:'general'" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Comments  []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
}
