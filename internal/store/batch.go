package store

import (
	"context"
	"database/sql"

	"github.com/jjtimmons/sraprep/internal/seq"
)

const insertSQL = `INSERT INTO sequences (seq_name, seq_end, seq) VALUES (?, ?, ?)`

// batch is one transaction of inserts. It's opened lazily on the first insert
// so an empty tail never makes an empty commit.
type batch struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	size int
}

// insert a record into the open transaction, opening one if needed.
func (b *batch) insert(ctx context.Context, rec seq.Record) (err error) {
	if b.tx == nil {
		if b.tx, err = b.db.BeginTx(ctx, nil); err != nil {
			return err
		}
		if b.stmt, err = b.tx.PrepareContext(ctx, insertSQL); err != nil {
			b.rollback()
			return err
		}
	}

	if _, err = b.stmt.ExecContext(ctx, rec.Name, rec.End.String(), rec.Seq); err != nil {
		return err
	}
	b.size++
	return nil
}

// commit the open transaction and return how many records it held.
func (b *batch) commit() (int, error) {
	if b.tx == nil {
		return 0, nil
	}

	b.stmt.Close()
	err := b.tx.Commit()
	n := b.size
	b.tx, b.stmt, b.size = nil, nil, 0
	if err != nil {
		return 0, err
	}
	return n, nil
}

// rollback drops the open transaction, if any.
func (b *batch) rollback() {
	if b.tx == nil {
		return
	}

	if b.stmt != nil {
		b.stmt.Close()
	}
	b.tx.Rollback()
	b.tx, b.stmt, b.size = nil, nil, 0
}
