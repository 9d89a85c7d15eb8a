package repository

import (
	"context"

	"github.com/danielledeleo/wikicore/wiki"
)

// RedirectionRepository defines the interface for redirection persistence
// and its audit log.
type RedirectionRepository interface {
	// SelectRedirection retrieves the redirection for an exact source title.
	SelectRedirection(ctx context.Context, namespaceID int, title string) (*wiki.Redirection, error)

	// SelectRedirectionsByLowercaseTitle retrieves redirections whose
	// lowercase source title matches, ordered by source title.
	SelectRedirectionsByLowercaseTitle(ctx context.Context, namespaceID int, lowercaseTitle string) ([]*wiki.Redirection, error)

	// UpsertRedirection inserts or replaces the redirection for its source title.
	UpsertRedirection(ctx context.Context, redirection *wiki.Redirection) error

	// DeleteRedirection removes the redirection for an exact source title.
	DeleteRedirection(ctx context.Context, namespaceID int, title string) error

	// InsertRedirectionLog appends an audit entry and populates entry.ID.
	InsertRedirectionLog(ctx context.Context, entry *wiki.RedirectionLogEntry) error

	// SelectRedirectionLog retrieves audit entries for a source title in
	// the order they were written.
	SelectRedirectionLog(ctx context.Context, namespaceID int, title string) ([]*wiki.RedirectionLogEntry, error)
}
