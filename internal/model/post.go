package model

import "time"

// DefaultCategory is used when a post is created without an explicit
// category.
const DefaultCategory = "thoughts"

// Post mirrors the 'posts' table plus the projected author name and tag set
// returned by the read paths.
type Post struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Category  string    `json:"category"`
	Slug      string    `json:"slug"`
	ReadTime  string    `json:"read_time"`
	AuthorID  uint64    `json:"author_id"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Published bool      `json:"published"`
}

// CategoryCount is one row of the category aggregation.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// TagCount is one row of the tag aggregation.
type TagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Stats summarizes the published content of the blog.
type Stats struct {
	Posts      int64 `json:"posts"`
	Categories int64 `json:"categories"`
	Tags       int64 `json:"tags"`
}
