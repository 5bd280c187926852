// Package loader defines the narrow DatabaseLoader interface the
// protocol parsers drive, the Column registry record they
// query, and two implementations: a bbolt-backed one that persists
// tables/columns/checkpoints for real runs, and a recording one for
// tests.
package loader

import "github.com/pkg/errors"

// Column is the read-only view of a declared column the decoder needs
// in order to compute cell payload element counts.
type Column struct {
	ElemBits   uint32
	Compressed bool
}

// DatabaseLoader is the collaborator the decoder drives one method call
// per decoded event. Any error returned terminates parsing
// and propagates to the caller.
type DatabaseLoader interface {
	UseSchema(file, name string) error
	RemotePath(dbName string) error
	NewTable(tableID uint32, name string) error
	NewColumn(columnID, tableID, elemBits, flagBits uint32, name string) error
	GetColumn(columnID uint32) (Column, bool)
	CellData(columnID uint32, data []byte, elemCount uint32) error
	CellDefault(columnID uint32, data []byte, elemCount uint32) error
	OpenStream() error
	CloseStream() error
	NextRow(tableID uint32) error
	MoveAhead(tableID uint32, nrows uint64) error
	ErrorMessage(msg string) error
}

// ErrColumnExists is returned by NewColumn when the column id was
// already registered.
var ErrColumnExists = errors.New("column already registered")

// ErrTableExists is returned by NewTable when the table id was already
// registered.
var ErrTableExists = errors.New("table already registered")

// ErrUnknownTable reports a table id that was never declared with
// NewTable. Neither BoltLoader nor Recording returns it: their NextRow
// and MoveAhead accept any table id.
var ErrUnknownTable = errors.New("unknown table id")
