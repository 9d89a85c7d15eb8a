package storage

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

// SchemaVersion is recorded in the Setting table after migrations run.
const SchemaVersion = 1

const (
	settingSchemaVersion = "schema_version"
	settingWikiName      = "wiki_name"
)

// DefaultWikiName names the project namespace when none is configured.
const DefaultWikiName = "Project"

// RunMigrations executes the database schema and seeds the install-time
// namespaces. This function is idempotent and safe to run multiple times.
func RunMigrations(db *sqlx.DB, wikiName string) error {
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return unavailable("apply schema", err)
	}

	if err := seedNamespaces(ctx, db, wikiName); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `INSERT INTO Setting (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingSchemaVersion, strconv.Itoa(SchemaVersion))
	if err != nil {
		return unavailable("record schema version", err)
	}

	return nil
}

// seedNamespaces installs the fixed namespace set. Namespaces are immutable
// once content references them, so existing rows are left untouched; the
// wiki name is only applied on first install.
func seedNamespaces(ctx context.Context, db *sqlx.DB, wikiName string) error {
	if wikiName == "" {
		wikiName = DefaultWikiName
	}
	if strings.Contains(wikiName, wiki.NamespaceSeparator) {
		return fmt.Errorf("wiki name %q must not contain %q", wikiName, wiki.NamespaceSeparator)
	}

	var installedName string
	err := db.GetContext(ctx, &installedName, `SELECT COALESCE((SELECT value FROM Setting WHERE key = ?), '')`, settingWikiName)
	if err != nil {
		return unavailable("read wiki name", err)
	}
	if installedName == "" {
		if _, err := db.ExecContext(ctx, `INSERT INTO Setting (key, value) VALUES (?, ?)`, settingWikiName, wikiName); err != nil {
			return unavailable("record wiki name", err)
		}
		installedName = wikiName
	}

	seed := []wiki.Namespace{
		{ID: wiki.DefaultNamespaceID, Name: "(default)"},
		{ID: wiki.UserNamespaceID, Name: "User"},
		{ID: wiki.ProjectNamespaceID, Name: installedName},
		{ID: wiki.FileNamespaceID, Name: "File"},
	}
	for _, ns := range seed {
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO Namespace (id, name) VALUES (?, ?)`, ns.ID, ns.Name); err != nil {
			return unavailable("seed namespace "+ns.Name, err)
		}
	}

	return nil
}
