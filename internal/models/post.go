// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// ContentFormat indicates how a post body is authored.
type ContentFormat string

const (
	// ContentFormatHTML is rich text produced by the editor.
	ContentFormatHTML ContentFormat = "html"
	// ContentFormatMarkdown is rendered to HTML on public reads.
	ContentFormatMarkdown ContentFormat = "markdown"
)

// Post is a news article. Every post has exactly one author and one category.
type Post struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Description   string        `json:"description"`
	Content       string        `json:"content"`
	ContentFormat ContentFormat `json:"content_format"`
	PhotoURL      *string       `json:"photo_url,omitempty"`
	Tags          []string      `json:"tags"`
	Views         int64         `json:"views"`
	AuthorID      int64         `json:"author_id"`
	CategoryID    int64         `json:"category_id"`
	Published     bool          `json:"published"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Joined by read queries.
	Author   *Author      `json:"author,omitempty"`
	Category *CategoryRef `json:"category,omitempty"`

	// ContentHTML is the rendered body, filled on public reads.
	ContentHTML string `json:"content_html,omitempty"`
}

// SetPublished flips the published flag and keeps PublishedAt consistent:
// stamped on the transition to published, cleared when unpublished.
func (p *Post) SetPublished(published bool, now time.Time) {
	switch {
	case published && (!p.Published || p.PublishedAt == nil):
		p.PublishedAt = &now
	case !published:
		p.PublishedAt = nil
	}
	p.Published = published
}

// PostPage is one page of a post listing plus the total number of matches.
type PostPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}
