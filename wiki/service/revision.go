package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/repository"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// History page bounds.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// RevisionLog is the append-only log of content snapshots per article.
type RevisionLog interface {
	// Append stores wikitext and records a new revision of the article
	// using q, which is normally the caller's transaction. It never touches
	// the article row.
	Append(ctx context.Context, q repository.Queries, articleID int64, wikitext string, actor wiki.Actor, summary string, typ wiki.RevisionType) (*wiki.Revision, error)

	// Latest returns the newest revision of a live article. The wikitext is
	// only read when includeContent is set.
	Latest(ctx context.Context, articleID int64, includeContent bool) (*wiki.Revision, error)

	// History returns one page of revisions, newest first.
	History(ctx context.Context, articleID int64, page wiki.Page) (*wiki.RevisionPage, error)

	// Get returns one revision of an article.
	Get(ctx context.Context, articleID, revisionID int64, includeContent bool) (*wiki.Revision, error)

	// Diff compares the wikitext of two revisions of the same article.
	Diff(ctx context.Context, articleID, oldRevisionID, newRevisionID int64) (*wiki.RevisionDiff, error)
}

type revisionLog struct {
	store repository.Store
	now   func() time.Time
}

// NewRevisionLog creates a new RevisionLog.
func NewRevisionLog(store repository.Store, now func() time.Time) RevisionLog {
	if now == nil {
		now = time.Now
	}
	return &revisionLog{store: store, now: now}
}

func (l *revisionLog) Append(ctx context.Context, q repository.Queries, articleID int64, wikitext string, actor wiki.Actor, summary string, typ wiki.RevisionType) (*wiki.Revision, error) {
	ref, err := q.PutWikitext(ctx, wikitext)
	if err != nil {
		return nil, err
	}

	revision := &wiki.Revision{
		ArticleID:   articleID,
		WikitextRef: ref,
		Wikitext:    wikitext,
		AuthorID:    actor.UserID,
		IPAddress:   actor.IPAddress,
		Summary:     summary,
		Type:        typ,
		Created:     l.now().UTC(),
	}
	if err := q.InsertRevision(ctx, revision); err != nil {
		return nil, err
	}
	return revision, nil
}

func (l *revisionLog) Latest(ctx context.Context, articleID int64, includeContent bool) (*wiki.Revision, error) {
	var revision *wiki.Revision
	err := l.store.WithReadTx(ctx, func(q repository.Queries) error {
		article, err := q.SelectArticleByID(ctx, articleID)
		if err != nil {
			return notFound(err)
		}
		if !article.IsLive() || article.LatestRevisionID == 0 {
			return wiki.ErrNotFound
		}

		revision, err = q.SelectLatestRevision(ctx, articleID)
		if err != nil {
			return notFound(err)
		}
		if revision.ID != article.LatestRevisionID {
			return fmt.Errorf("article %d points at revision %d but its newest revision is %d",
				articleID, article.LatestRevisionID, revision.ID)
		}
		if includeContent {
			return loadWikitext(ctx, q, revision)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revision, nil
}

func (l *revisionLog) History(ctx context.Context, articleID int64, page wiki.Page) (*wiki.RevisionPage, error) {
	limit := page.Limit
	switch {
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	case limit < 0:
		return nil, fmt.Errorf("%w: negative history limit", wiki.ErrInvalidLimit)
	}
	if page.Before < 0 {
		return nil, fmt.Errorf("%w: negative cursor", wiki.ErrInvalidLimit)
	}

	result := &wiki.RevisionPage{}
	err := l.store.WithReadTx(ctx, func(q repository.Queries) error {
		if _, err := q.SelectArticleByID(ctx, articleID); err != nil {
			return notFound(err)
		}

		// One extra row tells us whether an older page exists.
		revisions, err := q.SelectRevisionHistory(ctx, articleID, page.Before, limit+1)
		if err != nil {
			return err
		}
		if len(revisions) > limit {
			revisions = revisions[:limit]
			result.NextBefore = revisions[limit-1].ID
		}
		result.Revisions = revisions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *revisionLog) Get(ctx context.Context, articleID, revisionID int64, includeContent bool) (*wiki.Revision, error) {
	var revision *wiki.Revision
	err := l.store.WithReadTx(ctx, func(q repository.Queries) error {
		var err error
		revision, err = q.SelectRevision(ctx, articleID, revisionID)
		if err != nil {
			return notFound(err)
		}
		if includeContent {
			return loadWikitext(ctx, q, revision)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revision, nil
}

func (l *revisionLog) Diff(ctx context.Context, articleID, oldRevisionID, newRevisionID int64) (*wiki.RevisionDiff, error) {
	var oldText, newText string
	err := l.store.WithReadTx(ctx, func(q repository.Queries) error {
		for _, r := range []struct {
			id   int64
			text *string
		}{{oldRevisionID, &oldText}, {newRevisionID, &newText}} {
			revision, err := q.SelectRevision(ctx, articleID, r.id)
			if err != nil {
				return notFound(err)
			}
			if err := loadWikitext(ctx, q, revision); err != nil {
				return err
			}
			*r.text = revision.Wikitext
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	result := &wiki.RevisionDiff{
		OldRevisionID: oldRevisionID,
		NewRevisionID: newRevisionID,
		Segments:      make([]wiki.DiffSegment, 0, len(diffs)),
	}
	for _, diff := range diffs {
		var op wiki.DiffOp
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			op = wiki.DiffInsert
		case diffmatchpatch.DiffDelete:
			op = wiki.DiffDelete
		case diffmatchpatch.DiffEqual:
			op = wiki.DiffEqual
		}
		result.Segments = append(result.Segments, wiki.DiffSegment{Op: op, Text: diff.Text})
	}
	return result, nil
}

func loadWikitext(ctx context.Context, q repository.Queries, revision *wiki.Revision) error {
	text, err := q.SelectWikitext(ctx, revision.WikitextRef)
	if err != nil {
		return notFound(err)
	}
	revision.Wikitext = text
	return nil
}
