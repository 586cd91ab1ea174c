// Package storefake is an in-memory credentials.Store for tests.
package storefake

import (
	"sync"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/identity"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore keeps the encoded record in memory so tests can seed raw, possibly
// corrupt, bytes and observe how often the slot was written or cleared.
type FakeStore struct {
	lock    sync.RWMutex
	data    []byte
	saves   int
	clears  int
	saveErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Seed places raw bytes in the slot.
func (fs *FakeStore) Seed(raw []byte) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data = append([]byte(nil), raw...)
}

// FailSaves makes every following Save return err. Pass nil to reset.
func (fs *FakeStore) FailSaves(err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.saveErr = err
}

func (fs *FakeStore) Load() *credentials.Record {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.data == nil {
		return nil
	}
	record, err := credentials.Decode(fs.data)
	if err != nil {
		fs.data = nil
		fs.clears++
		return nil
	}
	return record
}

func (fs *FakeStore) Save(creds credentials.Credentials, id identity.Identity) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.saveErr != nil {
		return fs.saveErr
	}
	data, err := credentials.Encode(creds, id)
	if err != nil {
		return err
	}
	fs.data = data
	fs.saves++
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data = nil
	fs.clears++
	return nil
}

// Empty reports whether the slot holds nothing.
func (fs *FakeStore) Empty() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.data == nil
}

func (fs *FakeStore) Saves() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.saves
}

func (fs *FakeStore) Clears() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.clears
}
