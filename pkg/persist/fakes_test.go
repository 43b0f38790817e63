package persist

import (
	"github.com/ssargent/nvrecord/pkg/store"
)

// countingFlatStore wraps a flat store and counts sessions
type countingFlatStore struct {
	store.FlatStore
	begins   int
	ends     int
	beginErr error
	writeErr error
	endErr   error
}

func (c *countingFlatStore) Begin(size int) (store.FlatSession, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	session, err := c.FlatStore.Begin(size)
	if err != nil {
		return nil, err
	}
	c.begins++
	return &countingFlatSession{FlatSession: session, parent: c}, nil
}

type countingFlatSession struct {
	store.FlatSession
	parent *countingFlatStore
}

func (s *countingFlatSession) WriteBytes(offset int, data []byte) error {
	if s.parent.writeErr != nil {
		return s.parent.writeErr
	}
	return s.FlatSession.WriteBytes(offset, data)
}

func (s *countingFlatSession) End() error {
	s.parent.ends++
	err := s.FlatSession.End()
	if s.parent.endErr != nil {
		return s.parent.endErr
	}
	return err
}

// recordingKVStore wraps a key-value store and logs every primitive call
type recordingKVStore struct {
	store.KVStore
	calls     []string
	openErr   error
	setErrs   []error // returned by successive SetBlob calls before delegating
	commitErr error
}

func (r *recordingKVStore) Open(namespace string, mode store.OpenMode) (store.KVHandle, error) {
	r.calls = append(r.calls, "open:"+mode.String())
	if r.openErr != nil {
		return nil, r.openErr
	}
	handle, err := r.KVStore.Open(namespace, mode)
	if err != nil {
		return nil, err
	}
	return &recordingKVHandle{KVHandle: handle, parent: r}, nil
}

type recordingKVHandle struct {
	store.KVHandle
	parent *recordingKVStore
}

func (h *recordingKVHandle) GetBlob(key string) ([]byte, error) {
	h.parent.calls = append(h.parent.calls, "get")
	return h.KVHandle.GetBlob(key)
}

func (h *recordingKVHandle) SetBlob(key string, value []byte) error {
	h.parent.calls = append(h.parent.calls, "set")
	if len(h.parent.setErrs) > 0 {
		err := h.parent.setErrs[0]
		h.parent.setErrs = h.parent.setErrs[1:]
		if err != nil {
			return err
		}
	}
	return h.KVHandle.SetBlob(key, value)
}

func (h *recordingKVHandle) EraseAll() error {
	h.parent.calls = append(h.parent.calls, "erase")
	return h.KVHandle.EraseAll()
}

func (h *recordingKVHandle) Commit() error {
	h.parent.calls = append(h.parent.calls, "commit")
	if h.parent.commitErr != nil {
		return h.parent.commitErr
	}
	return h.KVHandle.Commit()
}

func (h *recordingKVHandle) Close() error {
	h.parent.calls = append(h.parent.calls, "close")
	return h.KVHandle.Close()
}

func (r *recordingKVStore) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}
