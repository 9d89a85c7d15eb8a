// Package special holds the built-in Special: pages. Pages are registered
// explicitly at startup; there is no discovery.
package special

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/danielledeleo/wikicore/wiki"
)

// Handler defines the interface for special page handlers. A handler that
// returns an error has written nothing; the caller reports the error.
type Handler interface {
	Handle(rw http.ResponseWriter, req *http.Request) error
}

// TitleJoiner renders a full title for display. *wiki.Namespaces implements it.
type TitleJoiner interface {
	Join(ft wiki.FullTitle) string
}

// ArticlePath is the API path of an article's full title.
func ArticlePath(fullTitle string) string {
	return "/articles/full-title/" + url.PathEscape(fullTitle)
}

// Registry holds all registered special pages.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a new special page registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a special page handler under name. Registering the same
// name twice is an error.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("special page name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("special page %q already registered", name)
	}
	r.handlers[name] = handler
	return nil
}

// Get retrieves a special page handler by name. Names are case-sensitive.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns the registered page names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
