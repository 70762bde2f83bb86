// Package migrations embeds the goose SQL migrations for every supported
// dialect. Each dialect lives in its own directory.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophgate/internal/dbx"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// For returns the migration files of dialect rooted at ".".
func For(d dbx.Dialect) (fs.FS, error) {
	switch d {
	case dbx.DialectPostgres:
		return fs.Sub(Migrations, "postgres")
	case dbx.DialectSQLite:
		return fs.Sub(Migrations, "sqlite")
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", d)
	}
}
