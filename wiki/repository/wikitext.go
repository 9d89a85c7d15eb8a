package repository

import "context"

// WikitextRepository is the content-addressed blob store for revision text.
type WikitextRepository interface {
	// PutWikitext stores text and returns its content address. Storing the
	// same text twice returns the same reference and keeps one copy.
	PutWikitext(ctx context.Context, text string) (ref string, err error)

	// SelectWikitext retrieves the text stored under ref.
	SelectWikitext(ctx context.Context, ref string) (string, error)
}
