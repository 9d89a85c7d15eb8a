package service

import (
	"database/sql"
	"errors"

	"github.com/danielledeleo/wikicore/wiki"
)

// notFound maps a missing row onto wiki.ErrNotFound and passes anything
// else through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return wiki.ErrNotFound
	}
	return err
}
