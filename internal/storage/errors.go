package storage

import (
	"database/sql"
	"fmt"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/pkg/errors"
)

// unavailable marks a driver failure as wiki.ErrStorageUnavailable while
// keeping the driver error in the chain.
func unavailable(op string, err error) error {
	return errors.Wrap(fmt.Errorf("%w: %w", wiki.ErrStorageUnavailable, err), op)
}

// check classifies a query error. sql.ErrNoRows passes through untouched
// for the services to map; anything else is a storage failure.
func check(op string, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return unavailable(op, err)
}

// checkTitle is check for statements guarded by the live-title unique index.
func checkTitle(op string, err error) error {
	if err != nil && isUniqueViolation(err) {
		return errors.Wrap(wiki.ErrTitleTaken, op)
	}
	return check(op, err)
}
