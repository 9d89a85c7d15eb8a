package wiki

import "time"

// Redirection maps a retired or alternate title onto an article.
type Redirection struct {
	SourceNamespaceID    int    `db:"source_namespace_id"`
	SourceTitle          string `db:"source_title"`
	LowercaseSourceTitle string `db:"lowercase_source_title"`
	DestinationArticleID int64  `db:"destination_article_id"`
}

// RedirectionLogType is the kind of change recorded in the redirection audit log.
type RedirectionLogType string

const (
	RedirectionAdd    RedirectionLogType = "ADD"
	RedirectionRemove RedirectionLogType = "REMOVE"
)

// RedirectionLogEntry is an append-only audit record of one redirection change.
type RedirectionLogEntry struct {
	ID                   int64              `db:"id"`
	Type                 RedirectionLogType `db:"type"`
	SourceNamespaceID    int                `db:"source_namespace_id"`
	SourceTitle          string             `db:"source_title"`
	DestinationArticleID int64              `db:"destination_article_id"`
	UserID               int64              `db:"user_id"`
	IPAddress            string             `db:"ip_address"`
	Created              time.Time          `db:"created"`
}
