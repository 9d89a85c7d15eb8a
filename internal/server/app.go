package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielledeleo/wikicore/internal/storage"
	"github.com/danielledeleo/wikicore/special"
	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/repository"
	"github.com/danielledeleo/wikicore/wiki/service"
)

// App holds all application dependencies and services.
type App struct {
	Articles     service.ArticleStore
	Revisions    service.RevisionLog
	Redirections service.RedirectionIndex
	Resolver     service.TitleResolver
	Namespaces   *wiki.Namespaces
	SpecialPages *special.Registry
	Config       *wiki.Config
	Store        repository.Store
}

// NewApp wires the services on top of an opened store. now may be nil.
func NewApp(ctx context.Context, store repository.Store, config *wiki.Config, now func() time.Time) (*App, error) {
	namespaces, err := LoadNamespaces(ctx, store)
	if err != nil {
		return nil, err
	}

	revisions := service.NewRevisionLog(store, now)
	redirections := service.NewRedirectionIndex(store, now)
	articles := service.NewArticleStore(store, namespaces, revisions, redirections, now)
	resolver := service.NewTitleResolver(store, namespaces, redirections)

	specialPages := special.NewRegistry()
	pages := map[string]special.Handler{
		"Random":         special.NewRandomPage(articles, namespaces),
		"RecentArticles": special.NewRecentArticlesPage(articles, namespaces),
	}
	for name, page := range pages {
		if err := specialPages.Register(name, page); err != nil {
			return nil, err
		}
	}

	return &App{
		Articles:     articles,
		Revisions:    revisions,
		Redirections: redirections,
		Resolver:     resolver,
		Namespaces:   namespaces,
		SpecialPages: specialPages,
		Config:       config,
		Store:        store,
	}, nil
}

// Setup opens the configured database and returns the App. The caller
// closes App.Store when done.
func Setup(ctx context.Context, config *wiki.Config) (*App, error) {
	store, err := storage.Open(config)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "file", config.DatabaseFile)

	app, err := NewApp(ctx, store, config, nil)
	if err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

// LoadNamespaces builds the immutable namespace registry from the store.
func LoadNamespaces(ctx context.Context, store repository.Store) (*wiki.Namespaces, error) {
	rows, err := store.SelectNamespaces(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]wiki.Namespace, 0, len(rows))
	for _, row := range rows {
		list = append(list, wiki.Namespace{ID: row.ID, Name: row.Name})
	}

	namespaces, err := wiki.NewNamespaces(list)
	if err != nil {
		return nil, fmt.Errorf("load namespaces: %w", err)
	}
	return namespaces, nil
}
