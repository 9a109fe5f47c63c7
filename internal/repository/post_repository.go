package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jpbreysse/svelteblog/internal/model"
	"github.com/jpbreysse/svelteblog/internal/utils"
)

// PostRepo persists posts, tags and the post<->tag links. All mutations run
// inside a single transaction so readers never observe a post with a
// partially written tag set.
type PostRepo struct {
	DB *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

// Create inserts a post together with its tag links. Slug, excerpt and
// read-time are derived from the title and content; the slug's uniqueness is
// enforced by the store and a collision surfaces as ErrSlugExists.
func (r *PostRepo) Create(ctx context.Context, authorID uint64, title, content, category string, tags []string) (model.Post, error) {
	if category == "" {
		category = model.DefaultCategory
	}
	slug := utils.Slugify(title)
	excerpt := utils.Excerpt(content)
	readTime := utils.ReadTime(content)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Post{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO posts (title, content, excerpt, category, slug, read_time, author_id) VALUES (?,?,?,?,?,?,?)",
		title, content, excerpt, category, slug, readTime, authorID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Post{}, ErrSlugExists
		}
		return model.Post{}, fmt.Errorf("insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	postID := uint64(id)

	if err := r.replaceTagsTx(ctx, tx, postID, tags); err != nil {
		return model.Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Post{}, err
	}
	return r.GetByID(ctx, postID)
}

// Update rewrites a post's fields, recomputing slug, excerpt and read-time
// from the new title and content, and replaces the full tag set in the same
// transaction. Only the author or an admin may update; the acting user's
// role is re-read from the store.
func (r *PostRepo) Update(ctx context.Context, id, actingUserID uint64, title, content, category string, tags []string) (model.Post, error) {
	if err := r.authorize(ctx, id, actingUserID); err != nil {
		return model.Post{}, err
	}
	if category == "" {
		category = model.DefaultCategory
	}
	slug := utils.Slugify(title)
	excerpt := utils.Excerpt(content)
	readTime := utils.ReadTime(content)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Post{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE posts SET title = ?, content = ?, excerpt = ?, category = ?, slug = ?, read_time = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, content, excerpt, category, slug, readTime, id)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Post{}, ErrSlugExists
		}
		return model.Post{}, fmt.Errorf("update post: %w", err)
	}

	if err := r.replaceTagsTx(ctx, tx, id, tags); err != nil {
		return model.Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Post{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a post. Tag links go with it via the cascade and tags left
// without any post are pruned. Same ownership rule as Update.
func (r *PostRepo) Delete(ctx context.Context, id, actingUserID uint64) error {
	if err := r.authorize(ctx, id, actingUserID); err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := pruneTagsTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAll is the bulk maintenance operation: it removes every post, every
// link and every orphaned tag, and reports how many of each were deleted.
func (r *PostRepo) DeleteAll(ctx context.Context) (posts, tags int64, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM post_tags"); err != nil {
		return 0, 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM posts")
	if err != nil {
		return 0, 0, err
	}
	posts, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, "DELETE FROM tags WHERE id NOT IN (SELECT DISTINCT tag_id FROM post_tags)")
	if err != nil {
		return 0, 0, err
	}
	tags, _ = res.RowsAffected()

	return posts, tags, tx.Commit()
}

// authorize loads the post's author and the acting user's current role and
// enforces the author-or-admin rule.
func (r *PostRepo) authorize(ctx context.Context, postID, actingUserID uint64) error {
	var authorID uint64
	err := r.DB.QueryRowContext(ctx, "SELECT author_id FROM posts WHERE id = ?", postID).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorID == actingUserID {
		return nil
	}
	var role model.Role
	err = r.DB.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", actingUserID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if role != model.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// replaceTagsTx replaces the post's full tag set: delete-all then re-insert,
// not a diff. Tag names are normalized to trimmed lowercase, empty names are
// dropped, duplicates collapse, and unknown tags are created on demand.
func (r *PostRepo) replaceTagsTx(ctx context.Context, tx *sql.Tx, postID uint64, tags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM post_tags WHERE post_id = ?", postID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}

	seen := make(map[string]bool, len(tags))
	for _, name := range tags {
		clean := utils.NormalizeTag(name)
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true

		var tagID uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", clean).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			res, err := tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", clean)
			if err != nil {
				return fmt.Errorf("insert tag: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			tagID = uint64(id)
		} else if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "INSERT INTO post_tags (post_id, tag_id) VALUES (?,?)", postID, tagID); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
	}
	return nil
}

// pruneTagsTx removes tags no post references anymore.
func pruneTagsTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id NOT IN (SELECT DISTINCT tag_id FROM post_tags)")
	return err
}
