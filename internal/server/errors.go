package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielledeleo/wikicore/wiki"
)

// errorBody is the JSON error envelope: {"name": ..., "message": ...}.
type errorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// errBadRequest marks request bodies and parameters that cannot be decoded.
var errBadRequest = errors.New("bad request")

// errorStatus maps a service error onto an HTTP status and error name.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, wiki.ErrInvalidTitle):
		return http.StatusBadRequest, "InvalidTitleError"
	case errors.Is(err, wiki.ErrInvalidNamespace):
		return http.StatusBadRequest, "InvalidNamespaceError"
	case errors.Is(err, wiki.ErrNoChange):
		return http.StatusBadRequest, "NoChangeError"
	case errors.Is(err, wiki.ErrEditConflict):
		return http.StatusBadRequest, "EditConflictError"
	case errors.Is(err, wiki.ErrInvalidLimit), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "BadRequest"
	case errors.Is(err, wiki.ErrTitleTaken):
		return http.StatusConflict, "TitleTakenError"
	case errors.Is(err, wiki.ErrTitleCollision):
		return http.StatusConflict, "TitleCollisionError"
	case errors.Is(err, wiki.ErrNotFound):
		return http.StatusNotFound, "ResourceNotFound"
	case errors.Is(err, wiki.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "StorageUnavailable"
	default:
		return http.StatusInternalServerError, "InternalServerError"
	}
}

// ErrorHandler writes err as a JSON error response. Server-side failures
// are logged and reported without their detail.
func (a *App) ErrorHandler(rw http.ResponseWriter, req *http.Request, err error) {
	status, name := errorStatus(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", req.Method, "path", req.URL.EscapedPath(), "error", err)
		message = http.StatusText(status)
	} else {
		slog.Debug("request rejected", "method", req.Method, "path", req.URL.EscapedPath(), "status", status, "reason", message)
	}

	writeJSON(rw, status, errorBody{Name: name, Message: message})
}

// recoveryLogger routes gorilla/handlers panic reports into slog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("panic recovered", "panic", v)
}
