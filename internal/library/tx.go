package library

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrTxDone is returned when a finished unit of work is committed again.
var ErrTxDone = errors.New("transaction already finished")

// Tx is one unit of work. Rows staged through it are visible to later queries
// on the same Tx before commit.
type Tx struct {
	conn
	tx   *sql.Tx
	done bool
}

// Commit makes the staged changes durable.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards staged changes. It is a no-op once the Tx has finished.
func (t *Tx) Rollback() error {
	if t == nil || t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

// Done reports whether the Tx was committed or rolled back.
func (t *Tx) Done() bool {
	return t.done
}
