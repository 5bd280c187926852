package loader

// Call records a single DatabaseLoader invocation. Tests assert against
// a slice of these to check dispatch order and argument values.
type Call struct {
	Method string
	Args   []interface{}
}

// Recording is an in-memory DatabaseLoader that remembers every call it
// received, in order. It fails only where Fail names the method.
type Recording struct {
	Calls   []Call
	columns map[uint32]Column

	// Fail, if set, is returned by the named method on its next call
	// instead of nil, then cleared. Lets tests exercise the "downstream
	// failure propagates" path without a real backend.
	Fail map[string]error
}

func NewRecording() *Recording {
	return &Recording{columns: make(map[uint32]Column)}
}

func (r *Recording) record(method string, args ...interface{}) error {
	r.Calls = append(r.Calls, Call{Method: method, Args: args})
	if err, ok := r.Fail[method]; ok {
		delete(r.Fail, method)
		return err
	}
	return nil
}

func (r *Recording) UseSchema(file, name string) error { return r.record("UseSchema", file, name) }
func (r *Recording) RemotePath(dbName string) error { return r.record("RemotePath", dbName) }
func (r *Recording) NewTable(tableID uint32, name string) error {
	return r.record("NewTable", tableID, name)
}

func (r *Recording) NewColumn(columnID, tableID, elemBits, flagBits uint32, name string) error {
	r.columns[columnID] = Column{ElemBits: elemBits, Compressed: flagBits&1 != 0}
	return r.record("NewColumn", columnID, tableID, elemBits, flagBits, name)
}

func (r *Recording) GetColumn(columnID uint32) (Column, bool) {
	col, ok := r.columns[columnID]
	return col, ok
}

func (r *Recording) CellData(columnID uint32, data []byte, elemCount uint32) error {
	cp := append([]byte(nil), data...)
	return r.record("CellData", columnID, cp, elemCount)
}

func (r *Recording) CellDefault(columnID uint32, data []byte, elemCount uint32) error {
	cp := append([]byte(nil), data...)
	return r.record("CellDefault", columnID, cp, elemCount)
}

func (r *Recording) OpenStream() error { return r.record("OpenStream") }
func (r *Recording) CloseStream() error { return r.record("CloseStream") }
func (r *Recording) NextRow(tableID uint32) error { return r.record("NextRow", tableID) }
func (r *Recording) MoveAhead(tableID uint32, nrows uint64) error {
	return r.record("MoveAhead", tableID, nrows)
}
func (r *Recording) ErrorMessage(msg string) error { return r.record("ErrorMessage", msg) }
