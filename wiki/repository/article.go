package repository

import (
	"context"
	"time"

	"github.com/danielledeleo/wikicore/wiki"
)

// ArticleRepository defines the interface for article persistence operations.
// Lookups by title only consider live articles.
type ArticleRepository interface {
	// InsertArticle inserts a live article without a latest revision and
	// populates article.ID.
	InsertArticle(ctx context.Context, article *wiki.Article) error

	// SelectArticleByID retrieves an article, live or deleted.
	SelectArticleByID(ctx context.Context, id int64) (*wiki.Article, error)

	// SelectArticleByTitle retrieves the live article with the exact title.
	SelectArticleByTitle(ctx context.Context, namespaceID int, title string) (*wiki.Article, error)

	// SelectArticlesByLowercaseTitle retrieves live articles whose lowercase
	// title matches, ordered by id.
	SelectArticlesByLowercaseTitle(ctx context.Context, namespaceID int, lowercaseTitle string) ([]*wiki.Article, error)

	// UpdateArticleTitle moves a live article to a new title.
	UpdateArticleTitle(ctx context.Context, id int64, namespaceID int, title, lowercaseTitle string) error

	// UpdateLatestRevision points the article at its newest revision.
	UpdateLatestRevision(ctx context.Context, id int64, revisionID int64, updated time.Time) error

	// MarkArticleDeleted moves a live article to the deleted state.
	MarkArticleDeleted(ctx context.Context, id int64, deleted time.Time) error

	// SelectRecentArticles returns live articles, most recently updated first.
	SelectRecentArticles(ctx context.Context, limit int) ([]*wiki.Article, error)

	// SelectRandomArticles returns up to limit live articles chosen at random.
	SelectRandomArticles(ctx context.Context, limit int) ([]*wiki.Article, error)
}
