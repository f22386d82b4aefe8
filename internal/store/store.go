// Package store persists sequence Records in a SQLite database file. Records
// are bulk loaded in batches, indexed by name once loading is done, and then
// read back in name order by rank.
package store

import (
	"context"
	"database/sql"
	"io"
	"os"
	"strconv"

	"github.com/jjtimmons/sraprep/internal/seq"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	// Version of the database layout. Stores with another version are refused
	Version = "2.0"

	// DefaultBatchSize is how many records are committed at a time
	DefaultBatchSize = 1000000

	// pageSize of the SQLite file, large pages for long sequence rows
	pageSize = 1 << 16

	busyTimeout = "busy_timeout(30000)"
)

var (
	// ErrIndexed is returned when writing to a store that's been indexed
	ErrIndexed = errors.New("store is indexed and closed to writes")

	// ErrNotIndexed is returned when reading ranks from a store that isn't indexed yet
	ErrNotIndexed = errors.New("store is not indexed")

	// ErrReadOnly is returned when writing through a read only handle
	ErrReadOnly = errors.New("store is read only")

	// ErrRank is returned for a rank past the last record
	ErrRank = errors.New("rank out of range")

	// ErrVersion is returned when opening a store built with another layout version
	ErrVersion = errors.New("store version mismatch")
)

// RecordReader is a source of Records, like *seq.File. Read returns io.EOF
// after the last Record.
type RecordReader interface {
	Read() (seq.Record, error)
}

// Store is a SQLite database of sequence Records.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
	indexed  bool
}

// Path is the SQLite file for a database prefix, eg "atram_db" -> "atram_db.sqlite.db".
func Path(prefix string) string {
	return prefix + ".sqlite.db"
}

// Create a new, empty store at path. An existing file there is removed.
func Create(ctx context.Context, path string) (*Store, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to remove old store %s", p)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma="+busyTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create store %s", path)
	}
	db.SetMaxOpenConns(1) // the pragmas are per connection

	s := &Store{db: db, path: path}
	stmts := []string{
		"PRAGMA page_size = " + strconv.Itoa(pageSize),
		`CREATE TABLE IF NOT EXISTS metadata (label TEXT PRIMARY KEY, value TEXT)`,
		`CREATE TABLE IF NOT EXISTS sequences (seq_name TEXT, seq_end TEXT, seq TEXT)`,
		"PRAGMA journal_mode = WAL",
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to set up store %s", path)
		}
	}

	if err := s.SetMeta(ctx, "version", Version); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Open an existing, indexed store for reading. Every call returns an
// independent handle.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "could not find the store %s", path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma="+busyTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store %s", path)
	}

	s := &Store{db: db, path: path, readOnly: true}

	version, err := s.Meta(ctx, "version")
	if err != nil {
		db.Close()
		return nil, err
	}
	if version != Version {
		db.Close()
		return nil, errors.Wrapf(ErrVersion, "%s was built with version %q, need %q: rebuild it", path, version, Version)
	}

	indexed, err := s.Meta(ctx, "indexed")
	if err != nil {
		db.Close()
		return nil, err
	}
	s.indexed = indexed == "1"

	return s, nil
}

// Path of the store's SQLite file.
func (s *Store) Path() string {
	return s.path
}

// Indexed returns whether the store has been indexed (and is closed to writes).
func (s *Store) Indexed() bool {
	return s.indexed
}

// Close the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads every record from r into the store, committing each batchSize
// records as one transaction. It returns the number of records committed.
//
// A failure stops the load. Batches committed before it stay in the store.
func (s *Store) Load(ctx context.Context, r RecordReader, batchSize int) (loaded int, err error) {
	if s.readOnly {
		return 0, errors.Wrap(ErrReadOnly, s.path)
	}
	if s.indexed {
		return 0, errors.Wrap(ErrIndexed, s.path)
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	b := &batch{db: s.db}
	defer b.rollback()

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return loaded, err
		}

		if err := b.insert(ctx, rec); err != nil {
			return loaded, errors.Wrapf(err, "failed to insert %s into %s", rec.Name, s.path)
		}

		if b.size >= batchSize {
			n, err := b.commit()
			if err != nil {
				return loaded, errors.Wrapf(err, "failed to commit a batch to %s", s.path)
			}
			loaded += n
		}
	}

	n, err := b.commit()
	if err != nil {
		return loaded, errors.Wrapf(err, "failed to commit a batch to %s", s.path)
	}
	return loaded + n, nil
}

// Index builds the name index. Afterwards the store only serves reads, so
// the rank of every record is fixed.
func (s *Store) Index(ctx context.Context) error {
	if s.readOnly {
		return errors.Wrap(ErrReadOnly, s.path)
	}
	if s.indexed {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS sequences_name_idx ON sequences (seq_name)`); err != nil {
		return errors.Wrapf(err, "failed to index %s", s.path)
	}
	if err := s.SetMeta(ctx, "indexed", "1"); err != nil {
		return err
	}

	// fold the WAL back in so read only handles don't need to write a -shm file
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = DELETE"); err != nil {
		return errors.Wrapf(err, "failed to checkpoint %s", s.path)
	}

	s.indexed = true
	return nil
}

// SetMeta sets a metadata label.
func (s *Store) SetMeta(ctx context.Context, label, value string) error {
	if s.readOnly {
		return errors.Wrap(ErrReadOnly, s.path)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO metadata (label, value) VALUES (?, ?)`, label, value); err != nil {
		return errors.Wrapf(err, "failed to set %s in %s", label, s.path)
	}
	return nil
}

// Meta returns the value of a metadata label, "" if it's unset.
func (s *Store) Meta(ctx context.Context, label string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE label = ?`, label).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s from %s", label, s.path)
	}
	return value, nil
}

// SingleEnded returns whether the store was built only from single end files.
func (s *Store) SingleEnded(ctx context.Context) (bool, error) {
	v, err := s.Meta(ctx, "single_ends")
	return v == "1", err
}

// Count is the number of records in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.indexed {
		return 0, errors.Wrap(ErrNotIndexed, s.path)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sequences`).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "failed to count records in %s", s.path)
	}
	return n, nil
}

// NameAtRank is the name of the record at a 0-based position in name order.
func (s *Store) NameAtRank(ctx context.Context, rank int) (string, error) {
	if !s.indexed {
		return "", errors.Wrap(ErrNotIndexed, s.path)
	}
	if rank < 0 {
		return "", errors.Wrapf(ErrRank, "rank %d", rank)
	}

	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT seq_name FROM sequences ORDER BY seq_name, rowid LIMIT 1 OFFSET ?`, rank,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", errors.Wrapf(ErrRank, "rank %d in %s", rank, s.path)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read rank %d from %s", rank, s.path)
	}
	return name, nil
}

// RangeScan calls fn, in name order, on the count records starting at rank
// start. Records sharing a name come back in the order they were loaded.
func (s *Store) RangeScan(ctx context.Context, start, count int, fn func(seq.Record) error) error {
	if !s.indexed {
		return errors.Wrap(ErrNotIndexed, s.path)
	}
	if start < 0 || count < 0 {
		return errors.Wrapf(ErrRank, "range [%d, %d)", start, start+count)
	}
	if count == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq_name, seq_end, seq FROM sequences ORDER BY seq_name, rowid LIMIT ? OFFSET ?`,
		count, start,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to scan [%d, %d) in %s", start, start+count, s.path)
	}
	defer rows.Close()

	for rows.Next() {
		var rec seq.Record
		var end string
		if err := rows.Scan(&rec.Name, &end, &rec.Seq); err != nil {
			return errors.Wrapf(err, "failed to read a record from %s", s.path)
		}
		if rec.End, err = seq.ParseEnd(end); err != nil {
			return errors.Wrapf(err, "bad record %s in %s", rec.Name, s.path)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	return errors.Wrapf(rows.Err(), "failed to scan [%d, %d) in %s", start, start+count, s.path)
}
