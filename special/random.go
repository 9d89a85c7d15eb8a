package special

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielledeleo/wikicore/wiki"
)

// RandomArticleFinder is the interface needed by RandomPage.
type RandomArticleFinder interface {
	FindRandomly(ctx context.Context, limit int) ([]*wiki.Article, error)
}

// RandomPage handles Special:Random requests.
type RandomPage struct {
	finder RandomArticleFinder
	titles TitleJoiner
}

// NewRandomPage creates a new Random special page handler.
func NewRandomPage(finder RandomArticleFinder, titles TitleJoiner) *RandomPage {
	return &RandomPage{finder: finder, titles: titles}
}

// Handle redirects to a random live article.
func (p *RandomPage) Handle(rw http.ResponseWriter, req *http.Request) error {
	articles, err := p.finder.FindRandomly(req.Context(), 1)
	if err != nil {
		return fmt.Errorf("random article: %w", err)
	}
	if len(articles) == 0 {
		return fmt.Errorf("%w: there are no articles", wiki.ErrNotFound)
	}

	http.Redirect(rw, req, ArticlePath(p.titles.Join(articles[0].FullTitle())), http.StatusSeeOther)
	return nil
}
