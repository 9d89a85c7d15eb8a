package service

import (
	"context"
	"fmt"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/repository"
)

// TitleResolver finds the live article best matching a requested title.
type TitleResolver interface {
	// Resolve tries, in order: an exact article title, an exact redirection,
	// a case-insensitive article title, and a case-insensitive redirection.
	// The first band that yields a live article wins.
	Resolve(ctx context.Context, fullTitle string) (*wiki.Resolution, error)
}

type titleResolver struct {
	store        repository.Store
	namespaces   *wiki.Namespaces
	redirections RedirectionIndex
}

// NewTitleResolver creates a new TitleResolver.
func NewTitleResolver(store repository.Store, namespaces *wiki.Namespaces, redirections RedirectionIndex) TitleResolver {
	return &titleResolver{
		store:        store,
		namespaces:   namespaces,
		redirections: redirections,
	}
}

func (r *titleResolver) Resolve(ctx context.Context, fullTitle string) (*wiki.Resolution, error) {
	title, err := r.namespaces.Parse(fullTitle)
	if err != nil {
		return nil, err
	}

	var resolution *wiki.Resolution
	err = r.store.WithReadTx(ctx, func(q repository.Queries) error {
		var err error
		resolution, err = r.resolve(ctx, q, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resolution == nil {
		return nil, fmt.Errorf("%w: %s", wiki.ErrNotFound, fullTitle)
	}
	return resolution, nil
}

// resolve returns nil when no band matches.
func (r *titleResolver) resolve(ctx context.Context, q repository.Queries, title wiki.FullTitle) (*wiki.Resolution, error) {
	article, err := q.SelectArticleByTitle(ctx, title.NamespaceID, title.Title)
	if err = notFound(err); err == nil {
		return r.resolution(wiki.ResolvedExact, article), nil
	} else if err != wiki.ErrNotFound {
		return nil, err
	}

	destinationID, ok, err := r.redirections.Resolve(ctx, q, title)
	if err != nil {
		return nil, err
	}
	if ok {
		article, err := liveDestination(ctx, q, destinationID)
		if err != nil {
			return nil, err
		}
		if article != nil {
			return r.resolution(wiki.ResolvedRedirection, article), nil
		}
	}

	lowercase := title.LowercaseTitle()

	articles, err := q.SelectArticlesByLowercaseTitle(ctx, title.NamespaceID, lowercase)
	if err != nil {
		return nil, err
	}
	if len(articles) > 0 {
		return r.resolution(wiki.ResolvedCaseInsensitive, articles[0]), nil
	}

	redirections, err := q.SelectRedirectionsByLowercaseTitle(ctx, title.NamespaceID, lowercase)
	if err != nil {
		return nil, err
	}
	for _, redirection := range redirections {
		article, err := liveDestination(ctx, q, redirection.DestinationArticleID)
		if err != nil {
			return nil, err
		}
		if article != nil {
			return r.resolution(wiki.ResolvedCaseInsensitiveRedirection, article), nil
		}
	}

	return nil, nil
}

func (r *titleResolver) resolution(typ wiki.ResolutionType, article *wiki.Article) *wiki.Resolution {
	return &wiki.Resolution{
		Type:      typ,
		FullTitle: r.namespaces.Join(article.FullTitle()),
		ArticleID: article.ID,
	}
}

// liveDestination returns nil for a redirection whose destination is gone.
func liveDestination(ctx context.Context, q repository.Queries, id int64) (*wiki.Article, error) {
	article, err := q.SelectArticleByID(ctx, id)
	if err = notFound(err); err == wiki.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if !article.IsLive() {
		return nil, nil
	}
	return article, nil
}
