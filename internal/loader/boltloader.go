package loader

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketTables      = []byte("tables")
	bucketColumns     = []byte("columns")
	bucketCheckpoints = []byte("checkpoints")
	bucketMeta        = []byte("meta")

	byteOrdering = binary.LittleEndian
)

// BoltLoader is the reference DatabaseLoader implementation: it
// persists the table/column registry and per-table row checkpoints in
// a bbolt database, so a load can be inspected after the process
// exits. A new BoltLoader does not read them back: its row counters
// start at zero. It does not compile schemas or manage VDB cursors —
// that belongs to the downstream database tooling.
type BoltLoader struct {
	mu sync.Mutex

	db        *bolt.DB
	sessionID uuid.UUID
	log       *logrus.Entry
	schema    SchemaResolver

	columns map[uint32]Column
	rows    map[uint32]uint64 // tableID -> rows committed this run

	opened bool
	closed bool
}

// SchemaResolver maps a schema name from a use-schema event to the
// local file backing it. Satisfied by internal/schema.Resolver.
type SchemaResolver interface {
	ResolveSchema(name string) (string, error)
}

// BoltLoaderOptions configures a BoltLoader.
type BoltLoaderOptions struct {
	// Path to the bbolt database file holding the registry and
	// checkpoints. Created if it does not exist.
	Path string
	Log  *logrus.Logger
	// Schema, if set, resolves use-schema file names against the
	// CLI-provided schema files and include paths. The resolved path is
	// what gets recorded, not the name as sent on the wire.
	Schema SchemaResolver
}

// NewBoltLoader opens (or creates) the bbolt database at opts.Path and
// returns a loader ready to receive events.
func NewBoltLoader(opts BoltLoaderOptions) (*BoltLoader, error) {
	db, err := bolt.Open(opts.Path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open checkpoint database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketTables, bucketColumns, bucketCheckpoints, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize checkpoint buckets")
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	sessionID := uuid.New()

	return &BoltLoader{
		db:        db,
		sessionID: sessionID,
		log:       log.WithField("session", sessionID.String()),
		schema:    opts.Schema,
		columns:   make(map[uint32]Column),
		rows:      make(map[uint32]uint64),
	}, nil
}

func (l *BoltLoader) Close() error {
	return l.db.Close()
}

// SessionID identifies this run, for the diagnostics server and log
// correlation.
func (l *BoltLoader) SessionID() uuid.UUID {
	return l.sessionID
}

// Stats is a point-in-time snapshot for the diagnostics server.
type Stats struct {
	SessionID   string
	Opened      bool
	Closed      bool
	RowsByTable map[uint32]uint64
}

func (l *BoltLoader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make(map[uint32]uint64, len(l.rows))
	for k, v := range l.rows {
		rows[k] = v
	}
	return Stats{SessionID: l.sessionID.String(), Opened: l.opened, Closed: l.closed, RowsByTable: rows}
}

func (l *BoltLoader) UseSchema(file, name string) error {
	if l.schema != nil {
		resolved, err := l.schema.ResolveSchema(file)
		if err != nil {
			return errors.Wrapf(err, "use-schema %s", file)
		}
		file = resolved
	}
	l.log.Infof("use-schema file=%s name=%s", file, name)
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if err := b.Put([]byte("schema_file"), []byte(file)); err != nil {
			return err
		}
		return b.Put([]byte("schema_name"), []byte(name))
	})
}

func (l *BoltLoader) RemotePath(dbName string) error {
	l.log.Infof("remote-path db=%s", dbName)
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte("remote_path"), []byte(dbName))
	})
}

func (l *BoltLoader) NewTable(tableID uint32, name string) error {
	l.log.Infof("new-table id=%d name=%s", tableID, name)
	key := tableKey(tableID)
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTables)
		if b.Get(key) != nil {
			return errors.Wrapf(ErrTableExists, "table id %d", tableID)
		}
		return b.Put(key, []byte(name))
	})
}

func (l *BoltLoader) NewColumn(columnID, tableID, elemBits, flagBits uint32, name string) error {
	l.log.Infof("new-column id=%d table=%d elem_bits=%d flags=%d name=%s", columnID, tableID, elemBits, flagBits, name)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.columns[columnID]; exists {
		return errors.Wrapf(ErrColumnExists, "column id %d", columnID)
	}
	col := Column{ElemBits: elemBits, Compressed: flagBits&1 != 0}
	key := columnKey(columnID)
	err := l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketColumns).Put(key, encodeColumnRecord(tableID, col, name))
	})
	if err != nil {
		return errors.Wrapf(err, "column id %d", columnID)
	}
	l.columns[columnID] = col
	return nil
}

func (l *BoltLoader) GetColumn(columnID uint32) (Column, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	col, ok := l.columns[columnID]
	return col, ok
}

func (l *BoltLoader) CellData(columnID uint32, data []byte, elemCount uint32) error {
	l.log.Debugf("cell-data column=%d elems=%d", columnID, elemCount)
	return nil
}

func (l *BoltLoader) CellDefault(columnID uint32, data []byte, elemCount uint32) error {
	l.log.Debugf("cell-default column=%d elems=%d", columnID, elemCount)
	return nil
}

func (l *BoltLoader) OpenStream() error {
	l.log.Info("open-stream")
	l.opened = true
	return nil
}

func (l *BoltLoader) CloseStream() error {
	l.log.Info("close-stream")
	l.closed = true
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCheckpoints)
		for tableID, rows := range l.rows {
			if err := b.Put(tableKey(tableID), encodeUint64(rows)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *BoltLoader) NextRow(tableID uint32) error {
	l.mu.Lock()
	l.rows[tableID]++
	l.mu.Unlock()
	return nil
}

func (l *BoltLoader) MoveAhead(tableID uint32, nrows uint64) error {
	l.log.Infof("move-ahead table=%d nrows=%d", tableID, nrows)
	l.mu.Lock()
	l.rows[tableID] += nrows
	l.mu.Unlock()
	return nil
}

func (l *BoltLoader) ErrorMessage(msg string) error {
	l.log.Errorf("writer reported error: %s", msg)
	return nil
}

func tableKey(id uint32) []byte {
	b := make([]byte, 4)
	byteOrdering.PutUint32(b, id)
	return b
}

func columnKey(id uint32) []byte {
	return tableKey(id)
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	byteOrdering.PutUint64(b, v)
	return b
}

// encodeColumnRecord packs {tableID, elemBits, flagBits, name} for
// storage; kept for diagnostics only and never read back (GetColumn is
// served from the in-memory map).
func encodeColumnRecord(tableID uint32, col Column, name string) []byte {
	flagBits := uint32(0)
	if col.Compressed {
		flagBits = 1
	}
	buf := make([]byte, 12+len(name))
	byteOrdering.PutUint32(buf[0:4], tableID)
	byteOrdering.PutUint32(buf[4:8], col.ElemBits)
	byteOrdering.PutUint32(buf[8:12], flagBits)
	copy(buf[12:], name)
	return buf
}
