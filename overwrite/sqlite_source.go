package overwrite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-zsv/zsvcore/internal/zsverr"
)

// DefaultSQLiteQuery is substituted whenever a caller-supplied statement
// fails the read-only-single-statement validation in validateReadOnlySelect.
const DefaultSQLiteQuery = "SELECT row, column, value FROM overwrites ORDER BY row, column"

// SQLiteSource streams overwrite entries from a SQLite database via a
// validated read-only query. Unlike CSVSource it does not materialize the
// whole result set: rows are pulled from the open *sql.Rows cursor lazily,
// matching the merge engine's single-producer/single-consumer protocol.
type SQLiteSource struct {
	db   *sql.DB
	rows *sql.Rows

	haveTimestamp bool
	haveAuthor    bool

	chk sortChecker
}

// NewSQLiteSource opens path and runs query (or DefaultSQLiteQuery if query
// fails validation) against it, returning a Source over the result rows.
// query must select columns named row, column, value and may additionally
// select timestamp and/or author. Result columns are read by position, in
// the order row, column, value, timestamp, author; no other columns may be
// selected.
func NewSQLiteSource(path, query string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("overwrite: opening %s: %w", path, err)
	}

	q := query
	if err := validateReadOnlySelect(q); err != nil {
		q = DefaultSQLiteQuery
	}

	rows, err := db.Query(q)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("overwrite: querying %s: %w", path, err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		db.Close()
		return nil, err
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[strings.ToLower(c)] = true
	}
	if !have["row"] || !have["column"] || !have["value"] {
		rows.Close()
		db.Close()
		return nil, zsverr.New(zsverr.StatusInvalidOption, fmt.Errorf("%w: query must select row, column, value", zsverr.ErrOverwriteMissingColumn))
	}

	return &SQLiteSource{
		db:            db,
		rows:          rows,
		haveTimestamp: have["timestamp"],
		haveAuthor:    have["author"],
	}, nil
}

// validateReadOnlySelect enforces a single read-only statement: exactly one
// statement, and it must be a SELECT. This is a
// conservative lexical check, not a full SQL parser — it rejects anything
// it cannot prove safe rather than trying to allow everything safe.
func validateReadOnlySelect(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return zsverr.ErrOverwriteNotReadOnly
	}
	body := strings.TrimSuffix(trimmed, ";")
	if strings.Contains(body, ";") {
		return zsverr.ErrOverwriteNotReadOnly
	}
	if !strings.EqualFold(firstWord(body), "select") {
		return zsverr.ErrOverwriteNotReadOnly
	}
	lower := strings.ToLower(body)
	for _, forbidden := range []string{"insert ", "update ", "delete ", "drop ", "alter ", "attach ", "pragma ", "create "} {
		if strings.Contains(lower, forbidden) {
			return zsverr.ErrOverwriteNotReadOnly
		}
	}
	return nil
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n("); i >= 0 {
		return s[:i]
	}
	return s
}

func (s *SQLiteSource) Next() (Entry, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}
	var e Entry
	var ts, author sql.NullString
	var err error
	switch {
	case s.haveTimestamp && s.haveAuthor:
		err = s.rows.Scan(&e.Row, &e.Col, &e.Value, &ts, &author)
	case s.haveTimestamp:
		err = s.rows.Scan(&e.Row, &e.Col, &e.Value, &ts)
	case s.haveAuthor:
		err = s.rows.Scan(&e.Row, &e.Col, &e.Value, &author)
	default:
		err = s.rows.Scan(&e.Row, &e.Col, &e.Value)
	}
	if err != nil {
		return Entry{}, false, err
	}
	e.Timestamp = ts.String
	e.Author = author.String
	if err := s.chk.check(e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *SQLiteSource) Close() error {
	s.rows.Close()
	return s.db.Close()
}
