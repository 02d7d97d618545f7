package store

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"wapi/log"
)

// DocVersion is stamped into the cache file metadata. The main package
// overrides it with the build version.
var DocVersion = "0.0.0"

const (
	docName    = "wapi-cache"
	docWarning = "THIS FILE IS AUTO-GENERATED. DO NOT EDIT MANUALLY. " +
		"IF THE FILE IS TAMPERED WITH, IT WILL BE OVERWRITTEN AND ALL PREVIOUS DATA WILL BE LOST."

	timeLayout = "2006-01-02 15:04:05.000"
)

// Timestamp renders cache times in the file's human-readable local layout.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Local().Format(timeLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

type docMetadata struct {
	Warning   string    `json:"warning"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Timestamp Timestamp `json:"timestamp"`
}

type docEntry struct {
	Address   string    `json:"address"`
	UpdatedAt Timestamp `json:"updated_at"`
}

type document struct {
	Metadata docMetadata         `json:"METADATA"`
	Records  map[string]docEntry `json:"RECORDS"`
}

func emptyDocument() document {
	return document{
		Metadata: docMetadata{
			Warning:   docWarning,
			Name:      docName,
			Version:   DocVersion,
			Timestamp: Timestamp(time.Now()),
		},
		Records: map[string]docEntry{},
	}
}

// File is the durable cache backend: one JSON document holding every
// record entry, rewritten atomically on each commit. A file that cannot be
// parsed, or that was written by something else, is discarded and started
// over; cached state is always re-derivable from the providers.
type File struct {
	path string

	mu     sync.Mutex
	doc    document
	closed bool
}

func OpenFile(ctx context.Context, path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	f := &File{path: path}
	f.doc = f.load(ctx)
	return f, nil
}

func (f *File) load(ctx context.Context) document {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.S(ctx).Warnw("cache file unreadable, starting empty", "path", f.path, zap.Error(err))
		}
		return emptyDocument()
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.S(ctx).Warnw("cache file corrupt, starting empty", "path", f.path, zap.Error(err))
		return emptyDocument()
	}
	if doc.Metadata.Name != docName {
		log.S(ctx).Warnw("cache file tampered with, starting empty", "path", f.path, "name", doc.Metadata.Name)
		return emptyDocument()
	}
	if doc.Records == nil {
		doc.Records = map[string]docEntry{}
	}

	// Entries that no longer parse cannot be trusted to suppress updates.
	for key, e := range doc.Records {
		if _, err := netip.ParseAddr(e.Address); err != nil {
			log.S(ctx).Warnw("dropping invalid cache entry", "key", key, "address", e.Address)
			delete(doc.Records, key)
		}
	}

	doc.Metadata.Warning = docWarning
	doc.Metadata.Version = DocVersion
	return doc
}

func (f *File) Get(k Key) (Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Entry{}, false, ErrClosed
	}

	e, ok := f.doc.Records[k.String()]
	if !ok {
		return Entry{}, false, nil
	}
	return Entry{Address: e.Address, UpdatedAt: time.Time(e.UpdatedAt)}, true, nil
}

func (f *File) Commit(k Key, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	f.doc.Records[k.String()] = docEntry{Address: e.Address, UpdatedAt: Timestamp(e.UpdatedAt)}
	return f.persistLocked()
}

func (f *File) Remove(k Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	if _, ok := f.doc.Records[k.String()]; !ok {
		return nil
	}
	delete(f.doc.Records, k.String())
	return f.persistLocked()
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// persistLocked rewrites the whole document through a temp file and rename,
// so a crash mid-write leaves the previous file intact.
func (f *File) persistLocked() error {
	f.doc.Metadata.Timestamp = Timestamp(time.Now())

	raw, err := json.MarshalIndent(&f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".wapi-cache-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
