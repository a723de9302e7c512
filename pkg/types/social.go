// Local social feed entities (forum and guinea-gram posts).
package types

import "time"

// ForumComment is a reply on a post.
type ForumComment struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"authorId"`
	Content  string    `json:"content"`
	Date     time.Time `json:"date"`
	Likes    int       `json:"likes"`
}

// ForumPost is a post in a local feed. Likes is a plain counter with no
// per-user tracking.
type ForumPost struct {
	ID       string         `json:"id"`
	AuthorID string         `json:"authorId"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Image    *string        `json:"image,omitempty"`
	Tags     []string       `json:"tags"`
	Likes    int            `json:"likes"`
	Comments []ForumComment `json:"comments"`
	Date     time.Time      `json:"date"`
}
