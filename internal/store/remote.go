package store

import "sync/atomic"

type remoteBox struct {
	store RemoteStore
}

// RemoteHandle holds the optional remote store. The zero value has no remote.
type RemoteHandle struct {
	current atomic.Pointer[remoteBox]
}

func NewRemoteHandle(r RemoteStore) *RemoteHandle {
	h := &RemoteHandle{}
	if r != nil {
		h.Set(r)
	}
	return h
}

func (h *RemoteHandle) Remote() (RemoteStore, bool) {
	box := h.current.Load()
	if box == nil || box.store == nil {
		return nil, false
	}
	return box.store, true
}

func (h *RemoteHandle) Set(r RemoteStore) {
	h.current.Store(&remoteBox{store: r})
}

// Clear detaches the remote and returns it so the caller can close it.
func (h *RemoteHandle) Clear() RemoteStore {
	box := h.current.Swap(nil)
	if box == nil {
		return nil
	}
	return box.store
}

func (h *RemoteHandle) Close() error {
	if r := h.Clear(); r != nil {
		return r.Close()
	}
	return nil
}
