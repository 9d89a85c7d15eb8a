package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielledeleo/wikicore/special"
	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/service"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 8 << 20

var defaultArticleFields = []string{"namespaceId", "title", "updatedAt"}

type articleSummary struct {
	NamespaceID      int       `json:"namespaceId"`
	Title            string    `json:"title"`
	FullTitle        string    `json:"fullTitle"`
	LatestRevisionID int64     `json:"latestRevisionId"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type revisionBody struct {
	ID          int64             `json:"id"`
	Type        wiki.RevisionType `json:"type"`
	AuthorID    int64             `json:"authorId"`
	IPAddress   string            `json:"ipAddress"`
	Summary     string            `json:"summary"`
	WikitextRef string            `json:"wikitextRef"`
	Wikitext    *string           `json:"wikitext,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type redirectionLogBody struct {
	Type                 wiki.RedirectionLogType `json:"type"`
	DestinationArticleID int64                   `json:"destinationArticleId"`
	UserID               int64                   `json:"userId"`
	IPAddress            string                  `json:"ipAddress"`
	CreatedAt            time.Time               `json:"createdAt"`
}

type createRequest struct {
	FullTitle string `json:"fullTitle"`
	Wikitext  string `json:"wikitext"`
	Summary   string `json:"summary"`
}

type editRequest struct {
	Wikitext         string `json:"wikitext"`
	Summary          string `json:"summary"`
	LatestRevisionID int64  `json:"latestRevisionId"`
}

type renameRequest struct {
	FullTitle string `json:"fullTitle"`
	Summary   string `json:"summary"`
}

type deleteRequest struct {
	Summary string `json:"summary"`
}

// ListArticlesHandler lists recently updated articles, or random ones when
// random=true.
func (a *App) ListArticlesHandler(rw http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	// A missing or unparsable limit falls back to the default.
	limit, _ := strconv.Atoi(query.Get("limit"))

	var articles []*wiki.Article
	var err error
	if random := query.Get("random"); random == "true" || random == "1" {
		articles, err = a.Articles.FindRandomly(req.Context(), limit)
		rw.Header().Set("Cache-Control", "no-store")
	} else {
		articles, err = a.Articles.FindAll(req.Context(), limit)
	}
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	out := make([]articleSummary, 0, len(articles))
	for _, article := range articles {
		out = append(out, a.summarize(article))
	}
	writeJSON(rw, http.StatusOK, map[string]any{"articles": out})
}

// CreateArticleHandler creates an article attributed to the anonymous user.
func (a *App) CreateArticleHandler(rw http.ResponseWriter, req *http.Request) {
	var body createRequest
	if err := decodeBody(rw, req, &body); err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	title, err := a.Namespaces.Parse(body.FullTitle)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	article, err := a.Articles.CreateNew(req.Context(), service.NewArticle{
		FullTitle: title,
		Actor:     actor(req),
		Wikitext:  body.Wikitext,
		Summary:   body.Summary,
	})
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	rw.Header().Set("Location", special.ArticlePath(a.Namespaces.Join(title)))
	writeJSON(rw, http.StatusCreated, map[string]any{"article": a.summarize(article)})
}

// GetArticleHandler returns the fields selected by the fields query
// parameter (comma-separated or repeated) of a live article.
func (a *App) GetArticleHandler(rw http.ResponseWriter, req *http.Request) {
	article, ok := a.lookupArticle(rw, req)
	if !ok {
		return
	}

	fields := requestedFields(req.URL.Query())
	etag := revisionETag(article.LatestRevisionID, strings.Join(fields, "."))
	setCacheConditional(rw, etag, article.UpdatedAt)
	if checkNotModified(rw, req, etag, article.UpdatedAt) {
		return
	}

	result := make(map[string]any, len(fields))
	for _, field := range fields {
		switch field {
		case "namespaceId":
			result[field] = article.NamespaceID
		case "title":
			result[field] = article.Title
		case "updatedAt":
			result[field] = article.UpdatedAt
		case "fullTitle":
			result[field] = a.Namespaces.Join(article.FullTitle())
		case "latestRevisionId":
			result[field] = article.LatestRevisionID
		case "wikitext":
			revision, err := a.Revisions.Latest(req.Context(), article.ID, true)
			if err != nil {
				a.ErrorHandler(rw, req, err)
				return
			}
			result[field] = revision.Wikitext
		}
	}

	writeJSON(rw, http.StatusOK, map[string]any{"article": result})
}

// EditArticleHandler appends a new revision. The body must carry the
// latest revision id the client saw.
func (a *App) EditArticleHandler(rw http.ResponseWriter, req *http.Request) {
	article, ok := a.lookupArticle(rw, req)
	if !ok {
		return
	}

	var body editRequest
	if err := decodeBody(rw, req, &body); err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	revision, err := a.Articles.Edit(req.Context(), service.EditArticle{
		Article:                  article,
		Actor:                    actor(req),
		Wikitext:                 body.Wikitext,
		Summary:                  body.Summary,
		ExpectedLatestRevisionID: body.LatestRevisionID,
	})
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{"revision": toRevisionBody(revision, false)})
}

// RenameArticleHandler moves an article to the full title in the body.
func (a *App) RenameArticleHandler(rw http.ResponseWriter, req *http.Request) {
	article, ok := a.lookupArticle(rw, req)
	if !ok {
		return
	}

	var body renameRequest
	if err := decodeBody(rw, req, &body); err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	title, err := a.Namespaces.Parse(body.FullTitle)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	err = a.Articles.Rename(req.Context(), service.RenameArticle{
		Article:      article,
		Actor:        actor(req),
		NewFullTitle: title,
		Summary:      body.Summary,
	})
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	full := a.Namespaces.Join(title)
	rw.Header().Set("Location", special.ArticlePath(full))
	writeJSON(rw, http.StatusOK, map[string]any{"fullTitle": full})
}

// DeleteArticleHandler soft-deletes an article. The body is optional.
func (a *App) DeleteArticleHandler(rw http.ResponseWriter, req *http.Request) {
	article, ok := a.lookupArticle(rw, req)
	if !ok {
		return
	}

	// An empty body, chunked or not, means no summary.
	var body deleteRequest
	if err := decodeBody(rw, req, &body); err != nil && !errors.Is(err, io.EOF) {
		a.ErrorHandler(rw, req, err)
		return
	}

	err := a.Articles.Delete(req.Context(), service.DeleteArticle{
		Article: article,
		Actor:   actor(req),
		Summary: body.Summary,
	})
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{})
}

// HistoryHandler pages through an article's revisions, newest first.
func (a *App) HistoryHandler(rw http.ResponseWriter, req *http.Request) {
	article, ok := a.lookupArticle(rw, req)
	if !ok {
		return
	}

	query := req.URL.Query()
	before, err := optionalInt(query.Get("before"))
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}
	limit, err := optionalInt(query.Get("limit"))
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	etag := revisionETag(article.LatestRevisionID, fmt.Sprintf("history.%d.%d", before, limit))
	setCacheConditional(rw, etag, article.UpdatedAt)
	if checkNotModified(rw, req, etag, article.UpdatedAt) {
		return
	}

	page, err := a.Revisions.History(req.Context(), article.ID, wiki.Page{Before: before, Limit: int(limit)})
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	out := make([]revisionBody, 0, len(page.Revisions))
	for _, revision := range page.Revisions {
		out = append(out, toRevisionBody(revision, false))
	}
	writeJSON(rw, http.StatusOK, map[string]any{"revisions": out, "nextBefore": page.NextBefore})
}

// RevisionHandler returns one revision including its wikitext.
func (a *App) RevisionHandler(rw http.ResponseWriter, req *http.Request) {
	article, ok := a.lookupArticle(rw, req)
	if !ok {
		return
	}

	revisionID, err := optionalInt(mux.Vars(req)["revisionId"])
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	revision, err := a.Revisions.Get(req.Context(), article.ID, revisionID, true)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	setCacheStable(rw, revision.Created)
	writeJSON(rw, http.StatusOK, map[string]any{"revision": toRevisionBody(revision, true)})
}

// DiffHandler compares two revisions given as old and new query
// parameters. new defaults to the latest revision and old to the one
// before it. Only a diff between two explicit revisions is cached as
// immutable.
func (a *App) DiffHandler(rw http.ResponseWriter, req *http.Request) {
	article, ok := a.lookupArticle(rw, req)
	if !ok {
		return
	}

	query := req.URL.Query()
	newID, err := optionalInt(query.Get("new"))
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}
	oldID, err := optionalInt(query.Get("old"))
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	// Without both ids the result follows the latest revision.
	pinned := oldID != 0 && newID != 0
	if !pinned {
		etag := revisionETag(article.LatestRevisionID, fmt.Sprintf("diff.%d.%d", oldID, newID))
		setCacheConditional(rw, etag, article.UpdatedAt)
		if checkNotModified(rw, req, etag, article.UpdatedAt) {
			return
		}
	}

	if newID == 0 {
		newID = article.LatestRevisionID
	}
	if oldID == 0 {
		page, err := a.Revisions.History(req.Context(), article.ID, wiki.Page{Before: newID, Limit: 1})
		if err != nil {
			a.ErrorHandler(rw, req, err)
			return
		}
		if len(page.Revisions) == 0 {
			a.ErrorHandler(rw, req, fmt.Errorf("%w: no revision before %d", wiki.ErrNotFound, newID))
			return
		}
		oldID = page.Revisions[0].ID
	}

	diff, err := a.Revisions.Diff(req.Context(), article.ID, oldID, newID)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	if pinned {
		setCacheStable(rw, time.Time{})
	}
	writeJSON(rw, http.StatusOK, map[string]any{"diff": diff})
}

// ResolveHandler resolves a title through redirections and case-insensitive
// matches: {"type": ..., "fullTitle": ...}.
func (a *App) ResolveHandler(rw http.ResponseWriter, req *http.Request) {
	fullTitle, err := titleVar(req)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	resolution, err := a.Resolver.Resolve(req.Context(), fullTitle)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	slog.Debug("title resolved", "category", "article", "action", "resolve",
		"article", fullTitle, "type", resolution.Type, "fullTitle", resolution.FullTitle)
	writeJSON(rw, http.StatusOK, resolution)
}

// RedirectionLogHandler returns the audit log of a redirection source title.
func (a *App) RedirectionLogHandler(rw http.ResponseWriter, req *http.Request) {
	fullTitle, err := titleVar(req)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}
	title, err := a.Namespaces.Parse(fullTitle)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	entries, err := a.Redirections.Log(req.Context(), title)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return
	}

	out := make([]redirectionLogBody, 0, len(entries))
	for _, entry := range entries {
		out = append(out, redirectionLogBody{
			Type:                 entry.Type,
			DestinationArticleID: entry.DestinationArticleID,
			UserID:               entry.UserID,
			IPAddress:            entry.IPAddress,
			CreatedAt:            entry.Created,
		})
	}
	writeJSON(rw, http.StatusOK, map[string]any{"entries": out})
}

func (a *App) SpecialPageHandler(rw http.ResponseWriter, req *http.Request) {
	pageName := mux.Vars(req)["page"]

	handler, ok := a.SpecialPages.Get(pageName)
	if !ok {
		a.ErrorHandler(rw, req, fmt.Errorf("%w: special page '%s' does not exist (available: %s)",
			wiki.ErrNotFound, pageName, strings.Join(a.SpecialPages.Names(), ", ")))
		return
	}

	if err := handler.Handle(rw, req); err != nil {
		a.ErrorHandler(rw, req, err)
	}
}

func (a *App) notFoundHandler(rw http.ResponseWriter, req *http.Request) {
	a.ErrorHandler(rw, req, fmt.Errorf("%w: %s", wiki.ErrNotFound, req.URL.EscapedPath()))
}

// lookupArticle finds the live article named by the fullTitle route
// variable, writing the error response itself when there is none.
func (a *App) lookupArticle(rw http.ResponseWriter, req *http.Request) (*wiki.Article, bool) {
	fullTitle, err := titleVar(req)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return nil, false
	}

	article, err := a.Articles.FindByFullTitle(req.Context(), fullTitle)
	if err != nil {
		a.ErrorHandler(rw, req, err)
		return nil, false
	}
	return article, true
}

func (a *App) summarize(article *wiki.Article) articleSummary {
	return articleSummary{
		NamespaceID:      article.NamespaceID,
		Title:            article.Title,
		FullTitle:        a.Namespaces.Join(article.FullTitle()),
		LatestRevisionID: article.LatestRevisionID,
		UpdatedAt:        article.UpdatedAt,
	}
}

func toRevisionBody(revision *wiki.Revision, withContent bool) revisionBody {
	body := revisionBody{
		ID:          revision.ID,
		Type:        revision.Type,
		AuthorID:    revision.AuthorID,
		IPAddress:   revision.IPAddress,
		Summary:     revision.Summary,
		WikitextRef: revision.WikitextRef,
		CreatedAt:   revision.Created,
	}
	if withContent {
		text := revision.Wikitext
		body.Wikitext = &text
	}
	return body
}

// titleVar returns the decoded fullTitle route variable.
func titleVar(req *http.Request) (string, error) {
	fullTitle, err := url.PathUnescape(mux.Vars(req)["fullTitle"])
	if err != nil {
		return "", fmt.Errorf("%w: %v", wiki.ErrInvalidTitle, err)
	}
	return fullTitle, nil
}

func requestedFields(query url.Values) []string {
	var fields []string
	for _, value := range query["fields"] {
		for _, field := range strings.Split(value, ",") {
			if field = strings.TrimSpace(field); field != "" {
				fields = append(fields, field)
			}
		}
	}
	if len(fields) == 0 {
		return defaultArticleFields
	}
	return fields
}

// actor attributes a request to the anonymous user at its remote address.
func actor(req *http.Request) wiki.Actor {
	ip := req.RemoteAddr
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		ip = host
	}
	return wiki.AnonymousActor(ip)
}

func optionalInt(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errBadRequest, raw)
	}
	return n, nil
}

func decodeBody(rw http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(rw, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}
