package repository

import (
	"context"

	"github.com/danielledeleo/wikicore/wiki"
)

// RevisionRepository defines the interface for the append-only revision log.
type RevisionRepository interface {
	// InsertRevision appends a revision and populates revision.ID.
	InsertRevision(ctx context.Context, revision *wiki.Revision) error

	// SelectRevision retrieves one revision of an article.
	SelectRevision(ctx context.Context, articleID, revisionID int64) (*wiki.Revision, error)

	// SelectLatestRevision retrieves the newest revision of an article.
	SelectLatestRevision(ctx context.Context, articleID int64) (*wiki.Revision, error)

	// SelectRevisionHistory retrieves revisions older than before (all when
	// before is zero), newest first, at most limit rows.
	SelectRevisionHistory(ctx context.Context, articleID int64, before int64, limit int) ([]*wiki.Revision, error)
}
