package repository

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/jpbreysse/svelteblog/internal/model"
)

func TestPostCreateDerivesFields(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	content := "<p>" + strings.TrimSpace(strings.Repeat("word ", 250)) + "</p>"
	p, err := posts.Create(ctx, author.ID, "Hello World!!", content, "", []string{"Go", "go"})
	require.NoError(t, err)

	require.Equal(t, "hello-world", p.Slug)
	require.Equal(t, "2 min read", p.ReadTime)
	require.Equal(t, model.DefaultCategory, p.Category)
	require.Equal(t, []string{"go"}, p.Tags)
	require.Equal(t, author.DisplayName(), p.Author)
	require.True(t, p.Published)
	require.True(t, strings.HasSuffix(p.Excerpt, "..."))
	require.Equal(t, 123, utf8.RuneCountInString(p.Excerpt))
	require.NotContains(t, p.Excerpt, "<p>")
}

func TestPostCreateSlugCollision(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	_, err := posts.Create(ctx, author.ID, "Same Title", "body one", "", nil)
	require.NoError(t, err)
	// "Same  Title!" slugifies to the same slug as "Same Title"
	_, err = posts.Create(ctx, author.ID, "Same  Title!", "body two", "", nil)
	require.ErrorIs(t, err, ErrSlugExists)
}

func TestPostUpdateReplacesTagSet(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	p, err := posts.Create(ctx, author.ID, "Tagged", "body", "", []string{"old", "kept"})
	require.NoError(t, err)

	p, err = posts.Update(ctx, p.ID, author.ID, "Tagged", "body", "", []string{"A", " a ", "b", "kept"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b", "kept"}, p.Tags)

	// the unlinked tag row survives the edit with no live link; only delete
	// and bulk delete prune orphans
	counts, err := posts.ListTags(ctx)
	require.NoError(t, err)
	byName := map[string]int64{}
	for _, tc := range counts {
		byName[tc.Name] = tc.Count
	}
	require.Equal(t, map[string]int64{"old": 0, "a": 1, "b": 1, "kept": 1}, byName)
}

func TestPostTagsWithCommasStayIntact(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	// the comma is stripped at normalization so the comma-joined tag
	// aggregate on the read path cannot split one tag into two
	p, err := posts.Create(ctx, author.ID, "Tagged", "body", "", []string{"go, web", "db"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"go web", "db"}, p.Tags)
}

func TestPostUpdateRecomputesDerivedFields(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	p, err := posts.Create(ctx, author.ID, "First Title", "short body", "", nil)
	require.NoError(t, err)
	require.Equal(t, "first-title", p.Slug)

	p, err = posts.Update(ctx, p.ID, author.ID, "Second Title", strings.Repeat("word ", 401), "ideas", nil)
	require.NoError(t, err)
	require.Equal(t, "second-title", p.Slug)
	require.Equal(t, "3 min read", p.ReadTime)
	require.Equal(t, "ideas", p.Category)
}

func TestPostOwnership(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "author@x.com")
	other := approvedUser(t, users, "other@x.com")
	admin := adminUser(t, users)

	p, err := posts.Create(ctx, author.ID, "Mine", "body", "", nil)
	require.NoError(t, err)

	_, err = posts.Update(ctx, p.ID, other.ID, "Stolen", "body", "", nil)
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, posts.Delete(ctx, p.ID, other.ID), ErrForbidden)

	_, err = posts.Update(ctx, p.ID, author.ID, "Mine Still", "body", "", nil)
	require.NoError(t, err)
	_, err = posts.Update(ctx, p.ID, admin.ID, "Moderated", "body", "", nil)
	require.NoError(t, err)

	require.NoError(t, posts.Delete(ctx, p.ID, admin.ID))
	_, err = posts.GetByID(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, posts.Delete(ctx, 99999, admin.ID), ErrNotFound)
}

func TestPostDeletePrunesOrphanTags(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	p1, err := posts.Create(ctx, author.ID, "One", "body", "", []string{"shared", "solo"})
	require.NoError(t, err)
	_, err = posts.Create(ctx, author.ID, "Two", "body", "", []string{"shared"})
	require.NoError(t, err)

	require.NoError(t, posts.Delete(ctx, p1.ID, author.ID))

	counts, err := posts.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, "shared", counts[0].Name)
	require.EqualValues(t, 1, counts[0].Count)
}

func TestUserDeleteCascadesToPosts(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	p, err := posts.Create(ctx, author.ID, "Doomed", "body", "", []string{"tag"})
	require.NoError(t, err)

	_, err = users.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", author.ID)
	require.NoError(t, err)

	_, err = posts.GetByID(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var links int
	require.NoError(t, users.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM post_tags").Scan(&links))
	require.Zero(t, links)
}

func TestPostDeleteAll(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	_, err := posts.Create(ctx, author.ID, "One", "body", "", []string{"x", "y"})
	require.NoError(t, err)
	_, err = posts.Create(ctx, author.ID, "Two", "body", "", []string{"y"})
	require.NoError(t, err)

	deletedPosts, deletedTags, err := posts.DeleteAll(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, deletedPosts)
	require.EqualValues(t, 2, deletedTags)

	all, err := posts.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestPostSearch(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	// empty store searches cleanly
	found, err := posts.Search(ctx, "anything", "")
	require.NoError(t, err)
	require.Empty(t, found)

	_, err = posts.Create(ctx, author.ID, "Gardening Notes", "How to grow tomatoes in clay soil", "tutorials", nil)
	require.NoError(t, err)
	_, err = posts.Create(ctx, author.ID, "Travel Log", "A week in the mountains", "", nil)
	require.NoError(t, err)

	found, err = posts.Search(ctx, "TOMATOES", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Gardening Notes", found[0].Title)

	// category filter intersects with the match
	found, err = posts.Search(ctx, "tomatoes", "tutorials")
	require.NoError(t, err)
	require.Len(t, found, 1)
	found, err = posts.Search(ctx, "tomatoes", model.DefaultCategory)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestPublishedFilter(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	p, err := posts.Create(ctx, author.ID, "Draft", "body", "", nil)
	require.NoError(t, err)
	_, err = users.DB.ExecContext(ctx, "UPDATE posts SET published = 0 WHERE id = ?", p.ID)
	require.NoError(t, err)

	_, err = posts.GetByID(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = posts.GetBySlug(ctx, p.Slug)
	require.ErrorIs(t, err, ErrNotFound)

	all, err := posts.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	// the author still sees their own drafts
	own, err := posts.ListByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.False(t, own[0].Published)
}

func TestPostListOrdering(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	// created within the same second; the id tiebreak keeps newest first
	for _, title := range []string{"First", "Second", "Third"} {
		_, err := posts.Create(ctx, author.ID, title, "body", "", nil)
		require.NoError(t, err)
	}

	all, err := posts.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Third", all[0].Title)
	require.Equal(t, "Second", all[1].Title)
	require.Equal(t, "First", all[2].Title)
}

func TestCategoriesAndStats(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	_, err := posts.Create(ctx, author.ID, "One", "body", "ideas", []string{"x"})
	require.NoError(t, err)
	_, err = posts.Create(ctx, author.ID, "Two", "body", "ideas", []string{"x", "y"})
	require.NoError(t, err)
	_, err = posts.Create(ctx, author.ID, "Three", "body", "", nil)
	require.NoError(t, err)

	cats, err := posts.ListCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.CategoryCount{
		{Category: "ideas", Count: 2},
		{Category: model.DefaultCategory, Count: 1},
	}, cats)

	stats, err := posts.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Stats{Posts: 3, Categories: 2, Tags: 2}, stats)
}

func TestListByCategory(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := approvedUser(t, users, "a@x.com")

	_, err := posts.Create(ctx, author.ID, "One", "body", "ideas", nil)
	require.NoError(t, err)
	_, err = posts.Create(ctx, author.ID, "Two", "body", "", nil)
	require.NoError(t, err)

	ideas, err := posts.ListByCategory(ctx, "ideas")
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	require.Equal(t, "One", ideas[0].Title)
}
