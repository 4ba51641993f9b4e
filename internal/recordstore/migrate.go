package recordstore

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// Migrate creates the collection table if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB, dialectName, table string) error {
	ddl, err := createTableSQL(dialectName, table)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func createTableSQL(dialectName, table string) (string, error) {
	if !ValidTableName(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}

	var types map[kind]string
	switch dialectName {
	case dialect.Postgres:
		types = map[kind]string{
			kindInt:  "BIGINT PRIMARY KEY",
			kindText: "TEXT",
			kindBool: "BOOLEAN",
			kindDate: "TEXT",
			kindTime: "TIMESTAMPTZ",
		}
	case dialect.SQLite:
		types = map[kind]string{
			kindInt:  "INTEGER PRIMARY KEY",
			kindText: "TEXT",
			kindBool: "BOOLEAN",
			kindDate: "TEXT",
			kindTime: "TIMESTAMP",
		}
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialectName)
	}

	b := entsql.Dialect(dialectName)
	defs := make([]string, len(columns))
	for i, c := range columns {
		name := b.String(func(sb *entsql.Builder) { sb.Ident(c.Name) })
		def := name + " " + types[c.Kind]
		if c.Name == colCreatedOn {
			def += " NOT NULL"
		}
		defs[i] = def
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		b.String(func(sb *entsql.Builder) { sb.Ident(table) }),
		strings.Join(defs, ", "),
	), nil
}
