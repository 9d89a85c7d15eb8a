package wiki

// ResolutionType identifies which priority band matched a requested title.
type ResolutionType string

// Resolution priority bands, in order.
const (
	ResolvedExact                      ResolutionType = "EXACT"
	ResolvedRedirection                ResolutionType = "REDIRECTION"
	ResolvedCaseInsensitive            ResolutionType = "CASE_INSENSITIVE"
	ResolvedCaseInsensitiveRedirection ResolutionType = "CASE_INSENSITIVE_REDIRECTION"
)

// Resolution is the outcome of resolving a requested title. FullTitle is
// always the canonical title of the live article, not the requested spelling.
type Resolution struct {
	Type      ResolutionType `json:"type"`
	FullTitle string         `json:"fullTitle"`
	ArticleID int64          `json:"-"`
}
