package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/repository"
	"github.com/microcosm-cc/bluemonday"
)

// Listing bounds for FindAll and FindRandomly.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// NewArticle is the input to ArticleStore.CreateNew.
type NewArticle struct {
	FullTitle wiki.FullTitle
	Actor     wiki.Actor
	Wikitext  string
	Summary   string
}

// EditArticle is the input to ArticleStore.Edit. ExpectedLatestRevisionID
// is the latest revision id the caller last observed.
type EditArticle struct {
	Article                  *wiki.Article
	Actor                    wiki.Actor
	Wikitext                 string
	Summary                  string
	ExpectedLatestRevisionID int64
}

// RenameArticle is the input to ArticleStore.Rename.
type RenameArticle struct {
	Article      *wiki.Article
	Actor        wiki.Actor
	NewFullTitle wiki.FullTitle
	Summary      string
}

// DeleteArticle is the input to ArticleStore.Delete.
type DeleteArticle struct {
	Article *wiki.Article
	Actor   wiki.Actor
	Summary string
}

// ArticleStore owns article identity and current state. Every mutation runs
// in a single transaction together with its revision and redirection
// changes.
type ArticleStore interface {
	// CreateNew creates an article with its first revision.
	CreateNew(ctx context.Context, in NewArticle) (*wiki.Article, error)

	// Edit appends an EDIT revision if the article has not moved past
	// in.ExpectedLatestRevisionID.
	Edit(ctx context.Context, in EditArticle) (*wiki.Revision, error)

	// Rename moves an article to a new title, leaving a redirection behind.
	Rename(ctx context.Context, in RenameArticle) error

	// Delete soft-deletes an article. Inbound redirections are kept.
	Delete(ctx context.Context, in DeleteArticle) error

	// FindByFullTitle returns the live article with exactly this full title.
	FindByFullTitle(ctx context.Context, fullTitle string) (*wiki.Article, error)

	// FindAll returns live articles, most recently updated first.
	FindAll(ctx context.Context, limit int) ([]*wiki.Article, error)

	// FindRandomly returns up to limit live articles chosen at random.
	FindRandomly(ctx context.Context, limit int) ([]*wiki.Article, error)
}

type articleStore struct {
	store        repository.Store
	namespaces   *wiki.Namespaces
	revisions    RevisionLog
	redirections RedirectionIndex
	now          func() time.Time
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(store repository.Store, namespaces *wiki.Namespaces, revisions RevisionLog, redirections RedirectionIndex, now func() time.Time) ArticleStore {
	if now == nil {
		now = time.Now
	}
	return &articleStore{
		store:        store,
		namespaces:   namespaces,
		revisions:    revisions,
		redirections: redirections,
		now:          now,
	}
}

var strip = bluemonday.StrictPolicy()

// plainSummary removes markup from a summary and stores the remaining text
// unescaped.
func plainSummary(summary string) string {
	return html.UnescapeString(strip.Sanitize(summary))
}

func (s *articleStore) CreateNew(ctx context.Context, in NewArticle) (*wiki.Article, error) {
	if err := s.namespaces.Validate(in.FullTitle); err != nil {
		return nil, err
	}
	summary := plainSummary(in.Summary)
	title := in.FullTitle

	var article *wiki.Article
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		if err := s.checkTitleFree(ctx, q, title, 0, in.Actor); err != nil {
			return err
		}

		article = &wiki.Article{
			NamespaceID:    title.NamespaceID,
			Title:          title.Title,
			LowercaseTitle: title.LowercaseTitle(),
			UpdatedAt:      s.now().UTC(),
		}
		if err := q.InsertArticle(ctx, article); err != nil {
			return err
		}

		revision, err := s.revisions.Append(ctx, q, article.ID, in.Wikitext, in.Actor, summary, wiki.RevisionCreate)
		if err != nil {
			return err
		}
		return s.setLatest(ctx, q, article, revision)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("article created", "category", "article", "action", "create",
		"article", s.namespaces.Join(title), "id", article.ID, "ip", in.Actor.IPAddress)
	return article, nil
}

func (s *articleStore) Edit(ctx context.Context, in EditArticle) (*wiki.Revision, error) {
	if in.Article == nil {
		return nil, wiki.ErrNotFound
	}
	summary := plainSummary(in.Summary)

	var revision *wiki.Revision
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		current, err := liveArticle(ctx, q, in.Article.ID)
		if err != nil {
			return err
		}
		if current.LatestRevisionID != in.ExpectedLatestRevisionID {
			return fmt.Errorf("%w: latest revision is %d, not %d", wiki.ErrEditConflict, current.LatestRevisionID, in.ExpectedLatestRevisionID)
		}

		latest, err := latestContent(ctx, q, current)
		if err != nil {
			return err
		}
		if latest.Wikitext == in.Wikitext {
			return wiki.ErrNoChange
		}

		revision, err = s.revisions.Append(ctx, q, current.ID, in.Wikitext, in.Actor, summary, wiki.RevisionEdit)
		if err != nil {
			return err
		}
		return s.setLatest(ctx, q, current, revision)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("article edited", "category", "article", "action", "edit",
		"article", s.namespaces.Join(in.Article.FullTitle()), "revision", revision.ID, "ip", in.Actor.IPAddress)
	return revision, nil
}

func (s *articleStore) Rename(ctx context.Context, in RenameArticle) error {
	if in.Article == nil {
		return wiki.ErrNotFound
	}
	if err := s.namespaces.Validate(in.NewFullTitle); err != nil {
		return err
	}
	summary := plainSummary(in.Summary)
	to := in.NewFullTitle

	var from wiki.FullTitle
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		current, err := liveArticle(ctx, q, in.Article.ID)
		if err != nil {
			return err
		}
		from = current.FullTitle()
		if from == to {
			return wiki.ErrNoChange
		}

		if err := s.checkTitleFree(ctx, q, to, current.ID, in.Actor); err != nil {
			return err
		}

		// Whatever redirection held the destination is overwritten.
		if err := s.redirections.Remove(ctx, q, to, in.Actor); err != nil {
			return err
		}
		if err := q.UpdateArticleTitle(ctx, current.ID, to.NamespaceID, to.Title, to.LowercaseTitle()); err != nil {
			return notFound(err)
		}
		if err := s.redirections.Set(ctx, q, from, current.ID, in.Actor); err != nil {
			return err
		}

		latest, err := latestContent(ctx, q, current)
		if err != nil {
			return err
		}
		if summary == "" {
			summary = fmt.Sprintf("Moved %q to %q", s.namespaces.Join(from), s.namespaces.Join(to))
		}
		revision, err := s.revisions.Append(ctx, q, current.ID, latest.Wikitext, in.Actor, summary, wiki.RevisionRename)
		if err != nil {
			return err
		}
		return s.setLatest(ctx, q, current, revision)
	})
	if err != nil {
		return err
	}

	slog.Info("article renamed", "category", "article", "action", "rename",
		"article", s.namespaces.Join(to), "from", s.namespaces.Join(from), "ip", in.Actor.IPAddress)
	return nil
}

func (s *articleStore) Delete(ctx context.Context, in DeleteArticle) error {
	if in.Article == nil {
		return wiki.ErrNotFound
	}
	summary := plainSummary(in.Summary)

	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		current, err := liveArticle(ctx, q, in.Article.ID)
		if err != nil {
			return err
		}

		latest, err := latestContent(ctx, q, current)
		if err != nil {
			return err
		}
		revision, err := s.revisions.Append(ctx, q, current.ID, latest.Wikitext, in.Actor, summary, wiki.RevisionDelete)
		if err != nil {
			return err
		}
		if err := s.setLatest(ctx, q, current, revision); err != nil {
			return err
		}
		return notFound(q.MarkArticleDeleted(ctx, current.ID, revision.Created))
	})
	if err != nil {
		return err
	}

	slog.Info("article deleted", "category", "article", "action", "delete",
		"article", s.namespaces.Join(in.Article.FullTitle()), "id", in.Article.ID, "ip", in.Actor.IPAddress)
	return nil
}

func (s *articleStore) FindByFullTitle(ctx context.Context, fullTitle string) (*wiki.Article, error) {
	title, err := s.namespaces.Parse(fullTitle)
	if err != nil {
		return nil, err
	}

	article, err := s.store.SelectArticleByTitle(ctx, title.NamespaceID, title.Title)
	if err != nil {
		return nil, notFound(err)
	}
	return article, nil
}

func (s *articleStore) FindAll(ctx context.Context, limit int) ([]*wiki.Article, error) {
	limit, err := listLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.store.SelectRecentArticles(ctx, limit)
}

func (s *articleStore) FindRandomly(ctx context.Context, limit int) ([]*wiki.Article, error) {
	limit, err := listLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.store.SelectRandomArticles(ctx, limit)
}

// checkTitleFree fails with wiki.ErrTitleTaken when a live article other
// than self, or a redirection to one, occupies title. A redirection to a
// deleted article is dropped so the title can be reused.
func (s *articleStore) checkTitleFree(ctx context.Context, q repository.Queries, title wiki.FullTitle, self int64, actor wiki.Actor) error {
	occupant, err := q.SelectArticleByTitle(ctx, title.NamespaceID, title.Title)
	if err == nil && occupant.ID != self {
		return fmt.Errorf("%w: %s", wiki.ErrTitleTaken, s.namespaces.Join(title))
	}
	if err = notFound(err); err != nil && err != wiki.ErrNotFound {
		return err
	}

	// Rename overwrites destination redirections, so only creation cares.
	if self != 0 {
		return nil
	}

	destinationID, ok, err := s.redirections.Resolve(ctx, q, title)
	if err != nil || !ok {
		return err
	}
	destination, err := q.SelectArticleByID(ctx, destinationID)
	if err = notFound(err); err != nil && err != wiki.ErrNotFound {
		return err
	}
	if err == nil && destination.IsLive() {
		return fmt.Errorf("%w: %s redirects to article %d", wiki.ErrTitleTaken, s.namespaces.Join(title), destinationID)
	}
	return s.redirections.Remove(ctx, q, title, actor)
}

func (s *articleStore) setLatest(ctx context.Context, q repository.Queries, article *wiki.Article, revision *wiki.Revision) error {
	if err := q.UpdateLatestRevision(ctx, article.ID, revision.ID, revision.Created); err != nil {
		return notFound(err)
	}
	article.LatestRevisionID = revision.ID
	article.UpdatedAt = revision.Created
	return nil
}

// liveArticle re-reads an article inside a transaction.
func liveArticle(ctx context.Context, q repository.Queries, id int64) (*wiki.Article, error) {
	article, err := q.SelectArticleByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !article.IsLive() {
		return nil, wiki.ErrNotFound
	}
	return article, nil
}

func latestContent(ctx context.Context, q repository.Queries, article *wiki.Article) (*wiki.Revision, error) {
	revision, err := q.SelectRevision(ctx, article.ID, article.LatestRevisionID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := loadWikitext(ctx, q, revision); err != nil {
		return nil, err
	}
	return revision, nil
}

func listLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultListLimit, nil
	case limit < 0 || limit > MaxListLimit:
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", wiki.ErrInvalidLimit, MaxListLimit)
	}
	return limit, nil
}
