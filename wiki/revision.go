package wiki

import "time"

// RevisionType records which operation produced a revision.
type RevisionType string

const (
	RevisionCreate RevisionType = "CREATE"
	RevisionEdit   RevisionType = "EDIT"
	RevisionRename RevisionType = "RENAME"
	RevisionDelete RevisionType = "DELETE"
)

// Revision is an immutable snapshot of an article's content.
// Wikitext is only populated when content was explicitly requested.
type Revision struct {
	ID          int64        `db:"id"`
	ArticleID   int64        `db:"article_id"`
	WikitextRef string       `db:"wikitext_ref"`
	Wikitext    string       `db:"-"`
	AuthorID    int64        `db:"author_id"`
	IPAddress   string       `db:"ip_address"`
	Summary     string       `db:"summary"`
	Type        RevisionType `db:"type"`
	Created     time.Time    `db:"created"`
}

// Page selects a window of revision history. Before is an exclusive
// revision id cursor; zero starts from the newest revision.
type Page struct {
	Before int64
	Limit  int
}

// RevisionPage is one window of history, newest first. NextBefore is zero
// when there are no older revisions.
type RevisionPage struct {
	Revisions  []*Revision
	NextBefore int64
}

// DiffOp is the kind of a diff segment.
type DiffOp string

const (
	DiffEqual  DiffOp = "equal"
	DiffInsert DiffOp = "insert"
	DiffDelete DiffOp = "delete"
)

// DiffSegment is one run of text in a revision diff.
type DiffSegment struct {
	Op   DiffOp `json:"op"`
	Text string `json:"text"`
}

// RevisionDiff is the change from one revision's wikitext to another's.
type RevisionDiff struct {
	OldRevisionID int64         `json:"oldRevisionId"`
	NewRevisionID int64         `json:"newRevisionId"`
	Segments      []DiffSegment `json:"segments"`
}
