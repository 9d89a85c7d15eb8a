package server

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Router builds the HTTP handler for the App. Full titles travel as single
// escaped path segments, so routing happens on the encoded path.
func (a *App) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.UseEncodedPath()

	router.HandleFunc("/articles", a.ListArticlesHandler).Methods("GET")
	router.HandleFunc("/articles", noStore(a.CreateArticleHandler)).Methods("POST")

	router.HandleFunc("/articles/full-title/{fullTitle}", a.GetArticleHandler).Methods("GET")
	router.HandleFunc("/articles/full-title/{fullTitle}", noStore(a.DeleteArticleHandler)).Methods("DELETE")
	router.HandleFunc("/articles/full-title/{fullTitle}/wikitext", noStore(a.EditArticleHandler)).Methods("PUT")
	router.HandleFunc("/articles/full-title/{fullTitle}/full-title", noStore(a.RenameArticleHandler)).Methods("PUT")
	router.HandleFunc("/articles/full-title/{fullTitle}/revisions", a.HistoryHandler).Methods("GET")
	router.HandleFunc("/articles/full-title/{fullTitle}/revisions/{revisionId:[0-9]+}", a.RevisionHandler).Methods("GET")
	router.HandleFunc("/articles/full-title/{fullTitle}/diff", a.DiffHandler).Methods("GET")

	router.HandleFunc("/articles/full-title-ci/{fullTitle}", a.ResolveHandler).Methods("GET")

	router.HandleFunc("/redirections/full-title/{fullTitle}/log", a.RedirectionLogHandler).Methods("GET")

	router.HandleFunc("/wiki/Special:{page}", a.SpecialPageHandler).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(a.notFoundHandler)

	var handler http.Handler = router
	handler = handlers.CompressHandler(handler)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))(handler)
	return SlogLoggingMiddleware(handler)
}
