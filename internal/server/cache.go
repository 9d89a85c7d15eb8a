package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Revisions and the diffs between them never change once written.
const immutableCacheControl = "public, max-age=86400"

// setCacheStable marks a response built only from immutable revisions.
func setCacheStable(w http.ResponseWriter, lastMod time.Time) {
	w.Header().Set("Cache-Control", immutableCacheControl)
	setLastModified(w, lastMod)
}

// setCacheConditional marks a response that changes whenever the article
// gets a new revision. Clients must revalidate with etag or lastMod.
func setCacheConditional(w http.ResponseWriter, etag string, lastMod time.Time) {
	w.Header().Set("Cache-Control", "public, no-cache")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	setLastModified(w, lastMod)
}

func setLastModified(w http.ResponseWriter, lastMod time.Time) {
	if !lastMod.IsZero() {
		w.Header().Set("Last-Modified", lastMod.UTC().Format(http.TimeFormat))
	}
}

// revisionETag is the weak validator of a representation built from an
// article's latest revision. variant distinguishes representations of the
// same revision, such as different field sets.
func revisionETag(revisionID int64, variant string) string {
	tag := strconv.FormatInt(revisionID, 10)
	if variant != "" {
		tag += "-" + variant
	}
	return `W/"` + tag + `"`
}

// checkNotModified answers a conditional GET. It writes 304 and returns
// true when the client's copy is current. If-None-Match wins over
// If-Modified-Since when both are present.
func checkNotModified(w http.ResponseWriter, r *http.Request, etag string, lastMod time.Time) bool {
	if inmatch := r.Header.Get("If-None-Match"); inmatch != "" {
		if etag == "" || !etagListContains(inmatch, etag) {
			return false
		}
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	ims := r.Header.Get("If-Modified-Since")
	if ims == "" || lastMod.IsZero() {
		return false
	}
	since, err := http.ParseTime(ims)
	if err != nil || lastMod.Truncate(time.Second).After(since) {
		return false
	}
	w.WriteHeader(http.StatusNotModified)
	return true
}

// etagListContains uses weak comparison, so W/"1" matches "1".
func etagListContains(list, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(list, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// noStore marks a mutation response as uncacheable.
func noStore(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		handler(w, r)
	}
}
