package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostArchived  PostStatus = "archived"
)

var validPostStatuses = []PostStatus{PostDraft, PostPublished, PostArchived}

func (s PostStatus) IsValid() bool {
	for _, candidate := range validPostStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParsePostStatus(value string) (PostStatus, error) {
	for _, candidate := range validPostStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid post status %q", value)
}

type BlogCategory struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(120);not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	PostCount   int       `json:"postCount" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const wordsPerMinute = 200

type BlogPost struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title         string     `json:"title" gorm:"type:varchar(200);not null"`
	Slug          string     `json:"slug" gorm:"uniqueIndex;type:varchar(220);not null"`
	Excerpt       string     `json:"excerpt,omitempty" gorm:"type:varchar(500)"`
	Content       string     `json:"content" gorm:"type:text;not null"`
	FeaturedImage string     `json:"featuredImage,omitempty" gorm:"type:varchar(500)"`
	AuthorID      string     `json:"authorId" gorm:"index;type:varchar(36)"`
	CategoryID    string     `json:"categoryId" gorm:"index;type:varchar(36)"`
	Tags          StringList `json:"tags" gorm:"type:text"`
	Status        PostStatus `json:"status" gorm:"index;type:varchar(20);not null"`
	PublishedAt   *time.Time `json:"publishedAt" gorm:"index"`
	Views         int        `json:"views" gorm:"not null"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ReadingTime is the estimated minutes to read the content.
func (p BlogPost) ReadingTime() int {
	words := len(strings.Fields(p.Content))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

func (p BlogPost) MarshalJSON() ([]byte, error) {
	type alias BlogPost
	return json.Marshal(struct {
		alias
		ReadingTime int `json:"readingTime"`
	}{alias: alias(p), ReadingTime: p.ReadingTime()})
}

type Testimonial struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	Avatar    string    `json:"avatar,omitempty" gorm:"type:varchar(500)"`
	Rating    int       `json:"rating" gorm:"not null"`
	Title     string    `json:"title,omitempty" gorm:"type:varchar(200)"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	IsActive  bool      `json:"isActive" gorm:"index;not null"`
	SortOrder int       `json:"sortOrder" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ContactMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Subject   string    `json:"subject" gorm:"type:varchar(200);not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	IsRead    bool      `json:"isRead" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}
