package storage

import (
	"context"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/jmoiron/sqlx"
)

// Revision repository methods for queries. Revisions are never updated or
// deleted; the schema enforces this with triggers.

const revisionColumns = `id, article_id, wikitext_ref, author_id, ip_address, summary, type, created`

func (q *queries) InsertRevision(ctx context.Context, revision *wiki.Revision) error {
	result, err := q.ext.ExecContext(ctx,
		`INSERT INTO Revision (article_id, wikitext_ref, author_id, ip_address, summary, type, created)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		revision.ArticleID,
		revision.WikitextRef,
		revision.AuthorID,
		revision.IPAddress,
		revision.Summary,
		revision.Type,
		revision.Created)
	if err != nil {
		return check("insert revision", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return unavailable("insert revision", err)
	}
	revision.ID = id
	return nil
}

func (q *queries) SelectRevision(ctx context.Context, articleID, revisionID int64) (*wiki.Revision, error) {
	revision := &wiki.Revision{}
	err := sqlx.GetContext(ctx, q.ext, revision,
		`SELECT `+revisionColumns+` FROM Revision WHERE article_id = ? AND id = ?`, articleID, revisionID)
	if err != nil {
		return nil, check("select revision", err)
	}
	return revision, nil
}

func (q *queries) SelectLatestRevision(ctx context.Context, articleID int64) (*wiki.Revision, error) {
	revision := &wiki.Revision{}
	err := sqlx.GetContext(ctx, q.ext, revision,
		`SELECT `+revisionColumns+` FROM Revision WHERE article_id = ? ORDER BY id DESC LIMIT 1`, articleID)
	if err != nil {
		return nil, check("select latest revision", err)
	}
	return revision, nil
}

func (q *queries) SelectRevisionHistory(ctx context.Context, articleID int64, before int64, limit int) ([]*wiki.Revision, error) {
	var revisions []*wiki.Revision
	err := sqlx.SelectContext(ctx, q.ext, &revisions,
		`SELECT `+revisionColumns+` FROM Revision
			WHERE article_id = ? AND (? = 0 OR id < ?)
			ORDER BY id DESC
			LIMIT ?`,
		articleID, before, before, limit)
	if err != nil {
		return nil, check("select revision history", err)
	}
	return revisions, nil
}
