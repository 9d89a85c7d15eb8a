package storage

import (
	"context"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/jmoiron/sqlx"
)

// Redirection repository methods for queries

const redirectionColumns = `source_namespace_id, source_title, lowercase_source_title, destination_article_id`

func (q *queries) SelectRedirection(ctx context.Context, namespaceID int, title string) (*wiki.Redirection, error) {
	redirection := &wiki.Redirection{}
	err := sqlx.GetContext(ctx, q.ext, redirection,
		`SELECT `+redirectionColumns+` FROM Redirection WHERE source_namespace_id = ? AND source_title = ?`,
		namespaceID, title)
	if err != nil {
		return nil, check("select redirection", err)
	}
	return redirection, nil
}

func (q *queries) SelectRedirectionsByLowercaseTitle(ctx context.Context, namespaceID int, lowercaseTitle string) ([]*wiki.Redirection, error) {
	var redirections []*wiki.Redirection
	err := sqlx.SelectContext(ctx, q.ext, &redirections,
		`SELECT `+redirectionColumns+` FROM Redirection
			WHERE source_namespace_id = ? AND lowercase_source_title = ?
			ORDER BY source_title ASC`,
		namespaceID, lowercaseTitle)
	if err != nil {
		return nil, check("select redirections by lowercase title", err)
	}
	return redirections, nil
}

func (q *queries) UpsertRedirection(ctx context.Context, redirection *wiki.Redirection) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO Redirection (source_namespace_id, source_title, lowercase_source_title, destination_article_id)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(source_namespace_id, source_title)
			DO UPDATE SET destination_article_id = excluded.destination_article_id`,
		redirection.SourceNamespaceID,
		redirection.SourceTitle,
		redirection.LowercaseSourceTitle,
		redirection.DestinationArticleID)
	return check("upsert redirection", err)
}

func (q *queries) DeleteRedirection(ctx context.Context, namespaceID int, title string) error {
	_, err := q.ext.ExecContext(ctx,
		`DELETE FROM Redirection WHERE source_namespace_id = ? AND source_title = ?`, namespaceID, title)
	return check("delete redirection", err)
}

func (q *queries) InsertRedirectionLog(ctx context.Context, entry *wiki.RedirectionLogEntry) error {
	result, err := q.ext.ExecContext(ctx,
		`INSERT INTO RedirectionLog (type, source_namespace_id, source_title, destination_article_id, user_id, ip_address, created)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Type,
		entry.SourceNamespaceID,
		entry.SourceTitle,
		entry.DestinationArticleID,
		entry.UserID,
		entry.IPAddress,
		entry.Created)
	if err != nil {
		return check("insert redirection log", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return unavailable("insert redirection log", err)
	}
	entry.ID = id
	return nil
}

func (q *queries) SelectRedirectionLog(ctx context.Context, namespaceID int, title string) ([]*wiki.RedirectionLogEntry, error) {
	var entries []*wiki.RedirectionLogEntry
	err := sqlx.SelectContext(ctx, q.ext, &entries,
		`SELECT id, type, source_namespace_id, source_title, destination_article_id, user_id, ip_address, created
			FROM RedirectionLog
			WHERE source_namespace_id = ? AND source_title = ?
			ORDER BY id ASC`,
		namespaceID, title)
	if err != nil {
		return nil, check("select redirection log", err)
	}
	return entries, nil
}
