package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/jmoiron/sqlx"
)

// Article repository methods for queries

const articleColumns = `id, namespace_id, title, lowercase_title,
	COALESCE(latest_revision_id, 0) AS latest_revision_id, state, deleted_at, updated_at`

func (q *queries) InsertArticle(ctx context.Context, article *wiki.Article) error {
	result, err := q.ext.ExecContext(ctx,
		`INSERT INTO Article (namespace_id, title, lowercase_title, state, updated_at) VALUES (?, ?, ?, 'active', ?)`,
		article.NamespaceID, article.Title, article.LowercaseTitle, article.UpdatedAt)
	if err != nil {
		return checkTitle("insert article", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return unavailable("insert article", err)
	}

	article.ID = id
	article.State = wiki.ArticleActive
	return nil
}

func (q *queries) SelectArticleByID(ctx context.Context, id int64) (*wiki.Article, error) {
	article := &wiki.Article{}
	err := sqlx.GetContext(ctx, q.ext, article, `SELECT `+articleColumns+` FROM Article WHERE id = ?`, id)
	if err != nil {
		return nil, check("select article", err)
	}
	return article, nil
}

func (q *queries) SelectArticleByTitle(ctx context.Context, namespaceID int, title string) (*wiki.Article, error) {
	article := &wiki.Article{}
	err := sqlx.GetContext(ctx, q.ext, article,
		`SELECT `+articleColumns+` FROM Article WHERE namespace_id = ? AND title = ? AND state = 'active'`,
		namespaceID, title)
	if err != nil {
		return nil, check("select article by title", err)
	}
	return article, nil
}

func (q *queries) SelectArticlesByLowercaseTitle(ctx context.Context, namespaceID int, lowercaseTitle string) ([]*wiki.Article, error) {
	var articles []*wiki.Article
	err := sqlx.SelectContext(ctx, q.ext, &articles,
		`SELECT `+articleColumns+` FROM Article
			WHERE namespace_id = ? AND lowercase_title = ? AND state = 'active'
			ORDER BY id ASC`,
		namespaceID, lowercaseTitle)
	if err != nil {
		return nil, check("select articles by lowercase title", err)
	}
	return articles, nil
}

func (q *queries) UpdateArticleTitle(ctx context.Context, id int64, namespaceID int, title, lowercaseTitle string) error {
	result, err := q.ext.ExecContext(ctx,
		`UPDATE Article SET namespace_id = ?, title = ?, lowercase_title = ? WHERE id = ? AND state = 'active'`,
		namespaceID, title, lowercaseTitle, id)
	if err != nil {
		return checkTitle("update article title", err)
	}
	return expectOneRow("update article title", result)
}

func (q *queries) UpdateLatestRevision(ctx context.Context, id int64, revisionID int64, updated time.Time) error {
	result, err := q.ext.ExecContext(ctx,
		`UPDATE Article SET latest_revision_id = ?, updated_at = ? WHERE id = ? AND state = 'active'`,
		revisionID, updated, id)
	if err != nil {
		return check("update latest revision", err)
	}
	return expectOneRow("update latest revision", result)
}

func (q *queries) MarkArticleDeleted(ctx context.Context, id int64, deleted time.Time) error {
	result, err := q.ext.ExecContext(ctx,
		`UPDATE Article SET state = 'deleted', deleted_at = ? WHERE id = ? AND state = 'active'`,
		deleted, id)
	if err != nil {
		return check("mark article deleted", err)
	}
	return expectOneRow("mark article deleted", result)
}

// SelectRecentArticles orders by latest revision id: revision ids grow
// monotonically, so this is most recently updated first.
func (q *queries) SelectRecentArticles(ctx context.Context, limit int) ([]*wiki.Article, error) {
	var articles []*wiki.Article
	err := sqlx.SelectContext(ctx, q.ext, &articles,
		`SELECT `+articleColumns+` FROM Article
			WHERE state = 'active' AND latest_revision_id IS NOT NULL
			ORDER BY latest_revision_id DESC
			LIMIT ?`, limit)
	if err != nil {
		return nil, check("select recent articles", err)
	}
	return articles, nil
}

func (q *queries) SelectRandomArticles(ctx context.Context, limit int) ([]*wiki.Article, error) {
	var articles []*wiki.Article
	err := sqlx.SelectContext(ctx, q.ext, &articles,
		`SELECT `+articleColumns+` FROM Article
			WHERE state = 'active' AND latest_revision_id IS NOT NULL
			ORDER BY RANDOM()
			LIMIT ?`, limit)
	if err != nil {
		return nil, check("select random articles", err)
	}
	return articles, nil
}

// expectOneRow reports sql.ErrNoRows when an update matched nothing.
func expectOneRow(op string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
