package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/repository"
)

// RedirectionIndex maps retired or alternate titles onto articles and keeps
// an audit log of every change. Mutations run on the caller's Queries so
// they commit with the surrounding article change.
type RedirectionIndex interface {
	// Set points the source title at destinationID. It fails with
	// wiki.ErrTitleCollision when a live article owns the source title.
	Set(ctx context.Context, q repository.Queries, source wiki.FullTitle, destinationID int64, actor wiki.Actor) error

	// Remove deletes the redirection for the source title, if any.
	Remove(ctx context.Context, q repository.Queries, source wiki.FullTitle, actor wiki.Actor) error

	// Resolve returns the destination of an exact-case source title.
	Resolve(ctx context.Context, q repository.Queries, source wiki.FullTitle) (destinationID int64, ok bool, err error)

	// Log returns the audit entries for a source title, oldest first.
	Log(ctx context.Context, source wiki.FullTitle) ([]*wiki.RedirectionLogEntry, error)
}

type redirectionIndex struct {
	store repository.Store
	now   func() time.Time
}

// NewRedirectionIndex creates a new RedirectionIndex.
func NewRedirectionIndex(store repository.Store, now func() time.Time) RedirectionIndex {
	if now == nil {
		now = time.Now
	}
	return &redirectionIndex{store: store, now: now}
}

func (r *redirectionIndex) Set(ctx context.Context, q repository.Queries, source wiki.FullTitle, destinationID int64, actor wiki.Actor) error {
	_, err := q.SelectArticleByTitle(ctx, source.NamespaceID, source.Title)
	if err == nil {
		return fmt.Errorf("%w: %d:%s", wiki.ErrTitleCollision, source.NamespaceID, source.Title)
	}
	if err = notFound(err); err != wiki.ErrNotFound {
		return err
	}

	existing, err := q.SelectRedirection(ctx, source.NamespaceID, source.Title)
	switch err = notFound(err); {
	case err == nil:
		if existing.DestinationArticleID == destinationID {
			return nil
		}
		if err := r.log(ctx, q, wiki.RedirectionRemove, source, existing.DestinationArticleID, actor); err != nil {
			return err
		}
	case err != wiki.ErrNotFound:
		return err
	}

	err = q.UpsertRedirection(ctx, &wiki.Redirection{
		SourceNamespaceID:    source.NamespaceID,
		SourceTitle:          source.Title,
		LowercaseSourceTitle: source.LowercaseTitle(),
		DestinationArticleID: destinationID,
	})
	if err != nil {
		return err
	}

	slog.Debug("redirection set", "category", "redirection", "action", "set",
		"namespace", source.NamespaceID, "title", source.Title, "article", destinationID)

	return r.log(ctx, q, wiki.RedirectionAdd, source, destinationID, actor)
}

func (r *redirectionIndex) Remove(ctx context.Context, q repository.Queries, source wiki.FullTitle, actor wiki.Actor) error {
	existing, err := q.SelectRedirection(ctx, source.NamespaceID, source.Title)
	if err = notFound(err); err == wiki.ErrNotFound {
		return nil
	} else if err != nil {
		return err
	}

	if err := q.DeleteRedirection(ctx, source.NamespaceID, source.Title); err != nil {
		return err
	}

	slog.Debug("redirection removed", "category", "redirection", "action", "remove",
		"namespace", source.NamespaceID, "title", source.Title, "article", existing.DestinationArticleID)

	return r.log(ctx, q, wiki.RedirectionRemove, source, existing.DestinationArticleID, actor)
}

func (r *redirectionIndex) Resolve(ctx context.Context, q repository.Queries, source wiki.FullTitle) (int64, bool, error) {
	redirection, err := q.SelectRedirection(ctx, source.NamespaceID, source.Title)
	if err = notFound(err); err == wiki.ErrNotFound {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	return redirection.DestinationArticleID, true, nil
}

func (r *redirectionIndex) Log(ctx context.Context, source wiki.FullTitle) ([]*wiki.RedirectionLogEntry, error) {
	return r.store.SelectRedirectionLog(ctx, source.NamespaceID, source.Title)
}

func (r *redirectionIndex) log(ctx context.Context, q repository.Queries, typ wiki.RedirectionLogType, source wiki.FullTitle, destinationID int64, actor wiki.Actor) error {
	return q.InsertRedirectionLog(ctx, &wiki.RedirectionLogEntry{
		Type:                 typ,
		SourceNamespaceID:    source.NamespaceID,
		SourceTitle:          source.Title,
		DestinationArticleID: destinationID,
		UserID:               actor.UserID,
		IPAddress:            actor.IPAddress,
		Created:              r.now().UTC(),
	})
}
