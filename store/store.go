// Package store keeps the last address confirmed at each provider, so
// update cycles can skip records that are already current without touching
// the network. Only record state is kept: credentials never enter the
// store.
package store

import (
	"errors"
	"strings"
	"time"

	"wapi/common"
)

// Key identifies one cached record. Provider is the account identifier the
// record updates through, so the same domain managed under two accounts
// keeps two independent entries.
type Key struct {
	Provider string
	Domain   string
	Type     common.RecordType
}

func (k Key) String() string {
	return k.Provider + "|" + strings.ToLower(k.Domain) + "|" + k.Type.String()
}

// Entry is the cached state for one record: the address the provider
// confirmed and when it did.
type Entry struct {
	Address   string
	UpdatedAt time.Time
}

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("store is closed")

// Interface is the durable record cache contract. Implementations are safe
// for concurrent use.
//
// Commit must only be called for addresses the provider has confirmed; a
// cached address the provider never acknowledged would suppress the very
// update that is needed.
type Interface interface {
	// Get returns the cached entry for k and whether one exists. A miss is
	// not an error.
	Get(k Key) (Entry, bool, error)

	// Commit durably records e as the confirmed state for k, replacing any
	// previous entry.
	Commit(k Key, e Entry) error

	// Remove forgets k. Removing an absent key is not an error.
	Remove(k Key) error

	// Close flushes and releases the backend.
	Close() error
}
