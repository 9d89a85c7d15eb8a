package special

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielledeleo/wikicore/wiki"
)

// RecentArticleFinder is the interface needed by RecentArticlesPage.
type RecentArticleFinder interface {
	FindAll(ctx context.Context, limit int) ([]*wiki.Article, error)
}

// RecentArticlesPage handles Special:RecentArticles requests.
type RecentArticlesPage struct {
	finder RecentArticleFinder
	titles TitleJoiner
}

// NewRecentArticlesPage creates a new RecentArticles special page handler.
func NewRecentArticlesPage(finder RecentArticleFinder, titles TitleJoiner) *RecentArticlesPage {
	return &RecentArticlesPage{finder: finder, titles: titles}
}

type recentArticle struct {
	FullTitle        string    `json:"fullTitle"`
	LatestRevisionID int64     `json:"latestRevisionId"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Handle lists recently updated articles as JSON. The optional limit query
// parameter is passed through to FindAll.
func (p *RecentArticlesPage) Handle(rw http.ResponseWriter, req *http.Request) error {
	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: limit %q is not a number", wiki.ErrInvalidLimit, raw)
		}
		limit = n
	}

	articles, err := p.finder.FindAll(req.Context(), limit)
	if err != nil {
		return fmt.Errorf("recent articles: %w", err)
	}

	out := make([]recentArticle, 0, len(articles))
	for _, article := range articles {
		out = append(out, recentArticle{
			FullTitle:        p.titles.Join(article.FullTitle()),
			LatestRevisionID: article.LatestRevisionID,
			UpdatedAt:        article.UpdatedAt,
		})
	}

	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(rw).Encode(out); err != nil {
		slog.Debug("failed to write response", "category", "special", "page", "RecentArticles", "error", err)
	}
	return nil
}
