package models

import (
	"time"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

// CommentSerializer is the serializer bound to CommentPolicy.
const CommentSerializer = "comment_html"

// CommentPolicy allows inline formatting only; disallowed markup is escaped.
var CommentPolicy = sanitizer.NewPolicy(
	sanitizer.WithTags("a", "em", "strong", "code"),
	sanitizer.WithAttributes("href"),
)

func init() {
	RegisterPolicy(CommentSerializer, CommentPolicy, nil)
}

// Comment represents a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	Author    string    `gorm:"size:64;not null;serializer:sanitize" sanitize:"strip" json:"author"`
	Body      string    `gorm:"type:text;not null;serializer:comment_html" json:"body"`
	Website   *string   `gorm:"size:255;serializer:sanitize" sanitize:"strip" json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
