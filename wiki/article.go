package wiki

import (
	"fmt"
	"time"
)

// ArticleState is the lifecycle state of an article. Active -> Deleted is
// the only transition.
type ArticleState string

const (
	ArticleActive  ArticleState = "active"
	ArticleDeleted ArticleState = "deleted"
)

// Article is the identity and current state of a wiki page.
type Article struct {
	ID               int64        `db:"id"`
	NamespaceID      int          `db:"namespace_id"`
	Title            string       `db:"title"`
	LowercaseTitle   string       `db:"lowercase_title"`
	LatestRevisionID int64        `db:"latest_revision_id"`
	State            ArticleState `db:"state"`
	DeletedAt        *time.Time   `db:"deleted_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

// FullTitle returns the article's namespace-qualified title.
func (a *Article) FullTitle() FullTitle {
	return FullTitle{NamespaceID: a.NamespaceID, Title: a.Title}
}

// IsLive returns true if the article has not been deleted.
func (a *Article) IsLive() bool {
	return a.State == ArticleActive
}

func (a *Article) String() string {
	return fmt.Sprintf("%d %d:%s (%s, rev %d)", a.ID, a.NamespaceID, a.Title, a.State, a.LatestRevisionID)
}
