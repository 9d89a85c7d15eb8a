package repository

import "context"

// Queries is the full set of persistence operations. A Queries value is
// either bound to the database directly or to a single open transaction.
type Queries interface {
	ArticleRepository
	RevisionRepository
	RedirectionRepository
	WikitextRepository
}

// Store is the transactional persistence boundary of the content store.
type Store interface {
	Queries

	// WithTx runs fn inside one transaction. The transaction commits if fn
	// returns nil and rolls back otherwise; fn must only use the Queries it
	// is given.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// WithReadTx runs fn inside one read-only transaction so that several
	// reads observe the same committed state.
	WithReadTx(ctx context.Context, fn func(q Queries) error) error

	// SelectNamespaces returns every namespace seeded at install time.
	SelectNamespaces(ctx context.Context) ([]*NamespaceRow, error)

	// Close releases the underlying database handle.
	Close() error
}

// NamespaceRow is a row of the Namespace table.
type NamespaceRow struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}
