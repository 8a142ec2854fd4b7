package invite

import (
	"database/sql"
	"net/url"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Open opens a connection pool for the given data source name and returns
// the query flavor matching its driver.
//
// Accepted forms:
//
//	sqlite3:/path/to/invites.db, sqlite:/path, file:invites.db?mode=rwc, :memory:
//	postgres://host/db, postgresql://host/db
//	pgsql:host=localhost;port=5432;dbname=slack
//
// The username and password are only used for postgres and only when the
// dsn does not already carry credentials.
func Open(dsn, username, password string) (*sql.DB, sqlbuilder.Flavor, error) {
	driver, source, flavor, err := parseDSN(dsn, username, password)
	if err != nil {
		return nil, 0, err
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to open database")
	}
	if flavor == sqlbuilder.SQLite {
		// sqlite serializes writers and in-memory databases live and die
		// with their connection.
		db.SetMaxOpenConns(1)
	}
	return db, flavor, nil
}

func parseDSN(dsn, username, password string) (driver, source string, flavor sqlbuilder.Flavor, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", 0, errors.Wrap(err, "invalid postgres dsn")
		}
		if u.User == nil && len(username) > 0 {
			u.User = url.UserPassword(username, password)
		}
		return "postgres", u.String(), sqlbuilder.PostgreSQL, nil
	case strings.HasPrefix(dsn, "pgsql:"):
		return "postgres", pdoToConnString(strings.TrimPrefix(dsn, "pgsql:"), username, password), sqlbuilder.PostgreSQL, nil
	case strings.HasPrefix(dsn, "sqlite3:"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite3:"), sqlbuilder.SQLite, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite:"), sqlbuilder.SQLite, nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return "sqlite3", dsn, sqlbuilder.SQLite, nil
	case len(dsn) == 0:
		return "", "", 0, errors.New("empty database dsn")
	default:
		return "", "", 0, errors.Errorf("unsupported database dsn %q", redact(dsn))
	}
}

// pdoToConnString converts the body of a PDO pgsql dsn into a lib/pq
// key/value connection string.
func pdoToConnString(body, username, password string) string {
	parts := make([]string, 0)
	var hasUser, hasPassword bool
	for _, kv := range strings.Split(body, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if !ok || len(k) == 0 {
			continue
		}
		switch k {
		case "user":
			hasUser = true
		case "password":
			hasPassword = true
		}
		parts = append(parts, k+"="+quoteConnValue(v))
	}
	if !hasUser && len(username) > 0 {
		parts = append(parts, "user="+quoteConnValue(username))
	}
	if !hasPassword && len(password) > 0 {
		parts = append(parts, "password="+quoteConnValue(password))
	}
	return strings.Join(parts, " ")
}

func quoteConnValue(v string) string {
	if len(v) > 0 && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
