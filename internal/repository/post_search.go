package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jpbreysse/svelteblog/internal/model"
)

// postSelect projects the post row together with the author's name parts and
// the GROUP_CONCAT'd tag names. Every read path shares it.
const postSelect = `SELECT
		p.id, p.title, p.content, p.excerpt, p.category, p.slug, p.read_time,
		p.author_id, p.created_at, p.updated_at, p.published,
		u.first_name, u.last_name,
		GROUP_CONCAT(t.name) AS tags
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_tags pt ON pt.post_id = p.id
	LEFT JOIN tags t ON t.id = pt.tag_id`

// Newest-first, with id as tiebreak so ordering is stable within a second.
const postOrder = ` GROUP BY p.id ORDER BY p.created_at DESC, p.id DESC`

// GetByID returns a published post by id.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (model.Post, error) {
	row := r.DB.QueryRowContext(ctx,
		postSelect+` WHERE p.id = ? AND p.published = 1 GROUP BY p.id`, id)
	return scanPost(row)
}

// GetBySlug returns a published post by slug.
func (r *PostRepo) GetBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := r.DB.QueryRowContext(ctx,
		postSelect+` WHERE p.slug = ? AND p.published = 1 GROUP BY p.id`, slug)
	return scanPost(row)
}

// ListAll returns every published post, newest first.
func (r *PostRepo) ListAll(ctx context.Context) ([]model.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE p.published = 1`+postOrder)
}

// ListByAuthor returns all of the author's posts regardless of the published
// flag; it backs the author's own listing.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE p.author_id = ?`+postOrder, authorID)
}

// ListByCategory returns the published posts of one category, newest first.
func (r *PostRepo) ListByCategory(ctx context.Context, category string) ([]model.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE p.category = ? AND p.published = 1`+postOrder, category)
}

// Search performs a case-insensitive substring match across title, content
// and excerpt, optionally intersected with a category filter. Only
// published posts are searched.
func (r *PostRepo) Search(ctx context.Context, query, category string) ([]model.Post, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := postSelect + ` WHERE p.published = 1
		AND (LOWER(p.title) LIKE ? OR LOWER(p.content) LIKE ? OR LOWER(p.excerpt) LIKE ?)`
	args := []any{pattern, pattern, pattern}
	if category != "" {
		q += ` AND p.category = ?`
		args = append(args, category)
	}
	return r.queryPosts(ctx, q+postOrder, args...)
}

// ListCategories returns each category of the published posts with its count.
func (r *PostRepo) ListCategories(ctx context.Context) ([]model.CategoryCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM posts WHERE published = 1 GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CategoryCount{}
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListTags returns every tag with the number of posts linked to it, most
// used first.
func (r *PostRepo) ListTags(ctx context.Context) ([]model.TagCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.name, COUNT(pt.post_id)
		FROM tags t
		LEFT JOIN post_tags pt ON pt.tag_id = t.id
		GROUP BY t.id, t.name
		ORDER BY COUNT(pt.post_id) DESC, t.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TagCount{}
	for rows.Next() {
		var t model.TagCount
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats summarizes the published posts, their distinct categories and the
// stored tags.
func (r *PostRepo) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE published = 1").Scan(&s.Posts); err != nil {
		return model.Stats{}, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT category) FROM posts WHERE published = 1").Scan(&s.Categories); err != nil {
		return model.Stats{}, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags").Scan(&s.Tags); err != nil {
		return model.Stats{}, err
	}
	return s, nil
}

func (r *PostRepo) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(row rowScanner) (model.Post, error) {
	var (
		p         model.Post
		firstName string
		lastName  string
		tags      sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.Category, &p.Slug,
		&p.ReadTime, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &p.Published,
		&firstName, &lastName, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	p.Author = firstName + " " + lastName
	p.Tags = []string{}
	if tags.Valid && tags.String != "" {
		p.Tags = strings.Split(tags.String, ",")
	}
	return p, nil
}
