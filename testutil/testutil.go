// Package testutil provides test utilities for wikicore tests.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielledeleo/wikicore/internal/server"
	"github.com/danielledeleo/wikicore/internal/storage"
	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/service"
)

// TestWikiName names the project namespace in test databases.
const TestWikiName = "Test Wiki"

// Clock is a manually advanced time source. Each call to Now moves it
// forward by one second so successive writes get distinct timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current instant and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}

// TestApp wraps the full application for integration tests.
type TestApp struct {
	*server.App
	Clock *Clock
}

// SetupTestApp creates a full application on a fresh in-memory database.
// The database is closed when the test finishes.
func SetupTestApp(t *testing.T) *TestApp {
	t.Helper()

	config := &wiki.Config{
		DatabaseFile: storage.MemoryDatabase,
		Host:         "localhost:8080",
		WikiName:     TestWikiName,
	}

	store, err := storage.Open(config)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := NewClock()
	app, err := server.NewApp(context.Background(), store, config, clock.Now)
	if err != nil {
		t.Fatalf("failed to set up app: %v", err)
	}

	return &TestApp{App: app, Clock: clock}
}

// NewServer starts an httptest server for the app's router.
func (app *TestApp) NewServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)
	return srv
}

// Handler returns the app's router.
func (app *TestApp) Handler() http.Handler {
	return app.Router()
}

// TestActor is the attribution used by test helpers.
var TestActor = wiki.Actor{UserID: 1, IPAddress: "127.0.0.1"}

// ParseTitle parses fullTitle with the app's namespaces or fails the test.
func (app *TestApp) ParseTitle(t *testing.T, fullTitle string) wiki.FullTitle {
	t.Helper()
	title, err := app.Namespaces.Parse(fullTitle)
	if err != nil {
		t.Fatalf("parse %q: %v", fullTitle, err)
	}
	return title
}

// CreateTestArticle creates an article with one revision.
func (app *TestApp) CreateTestArticle(t *testing.T, fullTitle, wikitext string) *wiki.Article {
	t.Helper()

	article, err := app.Articles.CreateNew(context.Background(), service.NewArticle{
		FullTitle: app.ParseTitle(t, fullTitle),
		Actor:     TestActor,
		Wikitext:  wikitext,
		Summary:   "create " + fullTitle,
	})
	if err != nil {
		t.Fatalf("failed to create article %q: %v", fullTitle, err)
	}
	return article
}

// EditTestArticle appends an EDIT revision on top of the article's latest.
func (app *TestApp) EditTestArticle(t *testing.T, article *wiki.Article, wikitext string) *wiki.Revision {
	t.Helper()

	current := app.MustFind(t, article.ID)
	revision, err := app.Articles.Edit(context.Background(), service.EditArticle{
		Article:                  current,
		Actor:                    TestActor,
		Wikitext:                 wikitext,
		ExpectedLatestRevisionID: current.LatestRevisionID,
	})
	if err != nil {
		t.Fatalf("failed to edit article %d: %v", article.ID, err)
	}
	return revision
}

// RenameTestArticle moves the article to newFullTitle.
func (app *TestApp) RenameTestArticle(t *testing.T, article *wiki.Article, newFullTitle string) {
	t.Helper()

	err := app.Articles.Rename(context.Background(), service.RenameArticle{
		Article:      article,
		Actor:        TestActor,
		NewFullTitle: app.ParseTitle(t, newFullTitle),
	})
	if err != nil {
		t.Fatalf("failed to rename article %d to %q: %v", article.ID, newFullTitle, err)
	}
}

// DeleteTestArticle soft-deletes the article.
func (app *TestApp) DeleteTestArticle(t *testing.T, article *wiki.Article) {
	t.Helper()

	err := app.Articles.Delete(context.Background(), service.DeleteArticle{
		Article: article,
		Actor:   TestActor,
	})
	if err != nil {
		t.Fatalf("failed to delete article %d: %v", article.ID, err)
	}
}

// MustFind re-reads an article by id, live or deleted.
func (app *TestApp) MustFind(t *testing.T, id int64) *wiki.Article {
	t.Helper()
	article, err := app.Store.SelectArticleByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to read article %d: %v", id, err)
	}
	return article
}
