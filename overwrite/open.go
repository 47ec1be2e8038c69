package overwrite

import (
	"fmt"
	"net/url"
	"strings"
)

// Open resolves an overwrite source descriptor per the wire convention:
// "sqlite3://path.db?sql=SELECT ..." for an explicit query, a plain path
// ending in ".sqlite3" for the default query, or a ".csv" path for the
// header-described CSV format.
func Open(descriptor string) (Source, error) {
	if strings.HasPrefix(descriptor, "sqlite3://") {
		u, err := url.Parse(descriptor)
		if err != nil {
			return nil, fmt.Errorf("overwrite: parsing %q: %w", descriptor, err)
		}
		query := u.Query().Get("sql")
		if query == "" {
			query = DefaultSQLiteQuery
		}
		return NewSQLiteSource(u.Host+u.Path, query)
	}
	if strings.HasSuffix(descriptor, ".sqlite3") {
		return NewSQLiteSource(descriptor, DefaultSQLiteQuery)
	}
	if strings.HasSuffix(descriptor, ".csv") {
		return NewCSVSource(descriptor)
	}
	return nil, fmt.Errorf("overwrite: unrecognized source descriptor %q", descriptor)
}
