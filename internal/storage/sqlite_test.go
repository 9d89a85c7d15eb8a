package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/repository"
)

// setupTestDB creates a migrated in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *sqliteDb {
	t.Helper()

	db, err := Open(&wiki.Config{DatabaseFile: MemoryDatabase, WikiName: "Test Wiki"})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// insertTestArticle creates a live article with one CREATE revision.
func insertTestArticle(t *testing.T, db *sqliteDb, namespaceID int, title, text string) (*wiki.Article, *wiki.Revision) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	article := &wiki.Article{
		NamespaceID:    namespaceID,
		Title:          title,
		LowercaseTitle: wiki.LowercaseTitle(title),
		UpdatedAt:      now,
	}
	revision := &wiki.Revision{
		AuthorID:  1,
		IPAddress: "127.0.0.1",
		Type:      wiki.RevisionCreate,
		Created:   now,
	}

	err := db.WithTx(ctx, func(q repository.Queries) error {
		if err := q.InsertArticle(ctx, article); err != nil {
			return err
		}
		ref, err := q.PutWikitext(ctx, text)
		if err != nil {
			return err
		}
		revision.ArticleID = article.ID
		revision.WikitextRef = ref
		if err := q.InsertRevision(ctx, revision); err != nil {
			return err
		}
		return q.UpdateLatestRevision(ctx, article.ID, revision.ID, now)
	})
	if err != nil {
		t.Fatalf("insert article %q: %v", title, err)
	}
	article.LatestRevisionID = revision.ID
	return article, revision
}

func TestInsertAndSelectArticle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	article, revision := insertTestArticle(t, db, wiki.DefaultNamespaceID, "Hello World", "# Hello")

	retrieved, err := db.SelectArticleByTitle(ctx, wiki.DefaultNamespaceID, "Hello World")
	if err != nil {
		t.Fatalf("SelectArticleByTitle failed: %v", err)
	}

	if retrieved.ID != article.ID {
		t.Errorf("expected ID %d, got %d", article.ID, retrieved.ID)
	}
	if retrieved.LowercaseTitle != "hello world" {
		t.Errorf("expected lowercase title %q, got %q", "hello world", retrieved.LowercaseTitle)
	}
	if retrieved.LatestRevisionID != revision.ID {
		t.Errorf("expected latest revision %d, got %d", revision.ID, retrieved.LatestRevisionID)
	}
	if retrieved.State != wiki.ArticleActive {
		t.Errorf("expected active state, got %q", retrieved.State)
	}
	if retrieved.DeletedAt != nil {
		t.Errorf("expected nil DeletedAt, got %v", retrieved.DeletedAt)
	}

	// Title lookups are exact-case.
	if _, err := db.SelectArticleByTitle(ctx, wiki.DefaultNamespaceID, "hello world"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for different case, got %v", err)
	}
}

func TestLiveTitleUniqueness(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	article, _ := insertTestArticle(t, db, wiki.DefaultNamespaceID, "Foo", "one")

	duplicate := &wiki.Article{NamespaceID: wiki.DefaultNamespaceID, Title: "Foo", LowercaseTitle: "foo", UpdatedAt: time.Now()}
	err := db.InsertArticle(ctx, duplicate)
	if !errors.Is(err, wiki.ErrTitleTaken) {
		t.Fatalf("expected ErrTitleTaken, got %v", err)
	}

	// Same title in another namespace is fine.
	other := &wiki.Article{NamespaceID: wiki.UserNamespaceID, Title: "Foo", LowercaseTitle: "foo", UpdatedAt: time.Now()}
	if err := db.InsertArticle(ctx, other); err != nil {
		t.Fatalf("insert in other namespace: %v", err)
	}

	// Deleted articles release their title.
	if err := db.MarkArticleDeleted(ctx, article.ID, time.Now()); err != nil {
		t.Fatalf("MarkArticleDeleted failed: %v", err)
	}
	if err := db.InsertArticle(ctx, duplicate); err != nil {
		t.Fatalf("expected title to be reusable after delete, got %v", err)
	}
}

func TestMarkArticleDeleted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	article, _ := insertTestArticle(t, db, wiki.DefaultNamespaceID, "Doomed", "bye")

	if err := db.MarkArticleDeleted(ctx, article.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkArticleDeleted failed: %v", err)
	}

	if _, err := db.SelectArticleByTitle(ctx, wiki.DefaultNamespaceID, "Doomed"); err != sql.ErrNoRows {
		t.Errorf("expected deleted article to be hidden, got %v", err)
	}

	deleted, err := db.SelectArticleByID(ctx, article.ID)
	if err != nil {
		t.Fatalf("SelectArticleByID failed: %v", err)
	}
	if deleted.State != wiki.ArticleDeleted || deleted.DeletedAt == nil {
		t.Errorf("expected deleted state with timestamp, got %s", deleted)
	}

	// A second delete matches no live row.
	if err := db.MarkArticleDeleted(ctx, article.ID, time.Now()); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSelectRevisionHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	article, first := insertTestArticle(t, db, wiki.DefaultNamespaceID, "History", "v1")

	ids := []int64{first.ID}
	for _, text := range []string{"v2", "v3", "v4"} {
		ref, err := db.PutWikitext(ctx, text)
		if err != nil {
			t.Fatalf("PutWikitext failed: %v", err)
		}
		rev := &wiki.Revision{ArticleID: article.ID, WikitextRef: ref, Type: wiki.RevisionEdit, IPAddress: "::1", Created: time.Now().UTC()}
		if err := db.InsertRevision(ctx, rev); err != nil {
			t.Fatalf("InsertRevision failed: %v", err)
		}
		ids = append(ids, rev.ID)
	}

	history, err := db.SelectRevisionHistory(ctx, article.ID, 0, 10)
	if err != nil {
		t.Fatalf("SelectRevisionHistory failed: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 revisions, got %d", len(history))
	}
	for i, rev := range history {
		if want := ids[len(ids)-1-i]; rev.ID != want {
			t.Errorf("history[%d] = %d, want %d", i, rev.ID, want)
		}
	}

	older, err := db.SelectRevisionHistory(ctx, article.ID, ids[2], 10)
	if err != nil {
		t.Fatalf("SelectRevisionHistory with cursor failed: %v", err)
	}
	if len(older) != 2 || older[0].ID != ids[1] || older[1].ID != ids[0] {
		t.Errorf("unexpected page before %d: %v", ids[2], older)
	}

	latest, err := db.SelectLatestRevision(ctx, article.ID)
	if err != nil {
		t.Fatalf("SelectLatestRevision failed: %v", err)
	}
	if latest.ID != ids[3] {
		t.Errorf("expected latest %d, got %d", ids[3], latest.ID)
	}
}

func TestRevisionsAreAppendOnly(t *testing.T) {
	db := setupTestDB(t)

	_, revision := insertTestArticle(t, db, wiki.DefaultNamespaceID, "Immutable", "text")

	if _, err := db.conn.Exec(`UPDATE Revision SET summary = 'changed' WHERE id = ?`, revision.ID); err == nil {
		t.Error("expected update of a revision to fail")
	}
	if _, err := db.conn.Exec(`DELETE FROM Revision WHERE id = ?`, revision.ID); err == nil {
		t.Error("expected delete of a revision to fail")
	}
}

func TestWikitextDeduplication(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)

	for _, text := range []string{"", "short", long} {
		ref1, err := db.PutWikitext(ctx, text)
		if err != nil {
			t.Fatalf("PutWikitext failed: %v", err)
		}
		ref2, err := db.PutWikitext(ctx, text)
		if err != nil {
			t.Fatalf("second PutWikitext failed: %v", err)
		}
		if ref1 != ref2 {
			t.Errorf("expected identical refs, got %s and %s", ref1, ref2)
		}
		if ref1 != WikitextRef(text) {
			t.Errorf("expected ref %s, got %s", WikitextRef(text), ref1)
		}

		got, err := db.SelectWikitext(ctx, ref1)
		if err != nil {
			t.Fatalf("SelectWikitext failed: %v", err)
		}
		if got != text {
			t.Errorf("round trip mismatch for %d-byte text", len(text))
		}
	}

	var count int
	if err := db.conn.Get(&count, `SELECT COUNT(*) FROM Wikitext`); err != nil {
		t.Fatalf("count wikitext: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 stored blobs, got %d", count)
	}

	var compression string
	if err := db.conn.Get(&compression, `SELECT compression FROM Wikitext WHERE ref = ?`, WikitextRef(long)); err != nil {
		t.Fatalf("select compression: %v", err)
	}
	if compression != string(CompressionZstd) {
		t.Errorf("expected long text to be zstd compressed, got %q", compression)
	}

	if _, err := db.SelectWikitext(ctx, "missing"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestRedirectionRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	target, _ := insertTestArticle(t, db, wiki.DefaultNamespaceID, "Target", "t")
	other, _ := insertTestArticle(t, db, wiki.DefaultNamespaceID, "Other", "o")

	redirection := &wiki.Redirection{
		SourceNamespaceID:    wiki.DefaultNamespaceID,
		SourceTitle:          "Old Name",
		LowercaseSourceTitle: "old name",
		DestinationArticleID: target.ID,
	}
	if err := db.UpsertRedirection(ctx, redirection); err != nil {
		t.Fatalf("UpsertRedirection failed: %v", err)
	}

	redirection.DestinationArticleID = other.ID
	if err := db.UpsertRedirection(ctx, redirection); err != nil {
		t.Fatalf("second UpsertRedirection failed: %v", err)
	}

	got, err := db.SelectRedirection(ctx, wiki.DefaultNamespaceID, "Old Name")
	if err != nil {
		t.Fatalf("SelectRedirection failed: %v", err)
	}
	if got.DestinationArticleID != other.ID {
		t.Errorf("expected destination %d, got %d", other.ID, got.DestinationArticleID)
	}

	matches, err := db.SelectRedirectionsByLowercaseTitle(ctx, wiki.DefaultNamespaceID, "old name")
	if err != nil {
		t.Fatalf("SelectRedirectionsByLowercaseTitle failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(matches))
	}

	if err := db.DeleteRedirection(ctx, wiki.DefaultNamespaceID, "Old Name"); err != nil {
		t.Fatalf("DeleteRedirection failed: %v", err)
	}
	if _, err := db.SelectRedirection(ctx, wiki.DefaultNamespaceID, "Old Name"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestRedirectionLogIsAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, typ := range []wiki.RedirectionLogType{wiki.RedirectionAdd, wiki.RedirectionRemove} {
		entry := &wiki.RedirectionLogEntry{
			Type:                 typ,
			SourceNamespaceID:    wiki.DefaultNamespaceID,
			SourceTitle:          "Src",
			DestinationArticleID: 7,
			IPAddress:            "10.0.0.1",
			Created:              time.Now().UTC(),
		}
		if err := db.InsertRedirectionLog(ctx, entry); err != nil {
			t.Fatalf("InsertRedirectionLog failed: %v", err)
		}
	}

	entries, err := db.SelectRedirectionLog(ctx, wiki.DefaultNamespaceID, "Src")
	if err != nil {
		t.Fatalf("SelectRedirectionLog failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Type != wiki.RedirectionAdd || entries[1].Type != wiki.RedirectionRemove {
		t.Errorf("unexpected log entries: %+v", entries)
	}

	if _, err := db.conn.Exec(`DELETE FROM RedirectionLog`); err == nil {
		t.Error("expected delete from redirection log to fail")
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(q repository.Queries) error {
		article := &wiki.Article{NamespaceID: wiki.DefaultNamespaceID, Title: "Ghost", LowercaseTitle: "ghost", UpdatedAt: time.Now()}
		if err := q.InsertArticle(ctx, article); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := db.SelectArticleByTitle(ctx, wiki.DefaultNamespaceID, "Ghost"); err != sql.ErrNoRows {
		t.Errorf("expected rolled back article to be absent, got %v", err)
	}
}

func TestSelectRecentAndRandomArticles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a, _ := insertTestArticle(t, db, wiki.DefaultNamespaceID, "A", "a")
	b, _ := insertTestArticle(t, db, wiki.DefaultNamespaceID, "B", "b")
	c, _ := insertTestArticle(t, db, wiki.DefaultNamespaceID, "C", "c")
	if err := db.MarkArticleDeleted(ctx, b.ID, time.Now()); err != nil {
		t.Fatalf("MarkArticleDeleted failed: %v", err)
	}

	recent, err := db.SelectRecentArticles(ctx, 10)
	if err != nil {
		t.Fatalf("SelectRecentArticles failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != c.ID || recent[1].ID != a.ID {
		t.Errorf("unexpected recent articles: %v", recent)
	}

	limited, err := db.SelectRecentArticles(ctx, 1)
	if err != nil {
		t.Fatalf("SelectRecentArticles failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}

	random, err := db.SelectRandomArticles(ctx, 10)
	if err != nil {
		t.Fatalf("SelectRandomArticles failed: %v", err)
	}
	if len(random) != 2 {
		t.Errorf("expected 2 live articles, got %d", len(random))
	}
	for _, article := range random {
		if article.ID == b.ID {
			t.Error("deleted article returned by SelectRandomArticles")
		}
	}
}

func TestSelectNamespaces(t *testing.T) {
	db := setupTestDB(t)

	rows, err := db.SelectNamespaces(context.Background())
	if err != nil {
		t.Fatalf("SelectNamespaces failed: %v", err)
	}
	if len(rows) != 4 || rows[2].Name != "Test Wiki" {
		t.Errorf("unexpected namespaces: %+v", rows)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN("wiki.db", 0)
	for _, want := range []string{"wiki.db?", "_txlock=immediate", "busy_timeout%285000%29", "journal_mode%28WAL%29"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
	if strings.Contains(DSN(MemoryDatabase, 100), "journal_mode") {
		t.Error("in-memory DSN should not request WAL")
	}
}
