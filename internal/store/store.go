// Package store keeps the persisted listings document.
//
// The document is loaded once, mutated in memory through Upsert, and
// written back by Flush. Flush never exposes a partially written file: the
// new content goes to a temporary file in the same directory, is synced, and
// then renamed over the target. One Store per output file and run.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/law-makers/listings/internal/engine"
	"github.com/law-makers/listings/pkg/models"
	"github.com/rs/zerolog/log"
)

// rename is swapped out by tests to simulate a crash before the commit
var rename = os.Rename

// Store is the in-memory view of the document at Path
type Store struct {
	Path string
	doc  *models.Document
}

// New returns a store for path with an empty document; call Load to read existing state
func New(path string) *Store {
	return &Store{Path: path, doc: models.NewDocument()}
}

// Open creates a store and loads its current document
func Open(path string) (*Store, error) {
	s := New(path)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the document from disk. A missing or empty file is an empty
// document; unreadable or malformed content is a persistence error.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", s.Path).Msg("No existing document, starting empty")
		s.doc = models.NewDocument()
		return nil
	}
	if err != nil {
		return engine.PersistenceError("reading "+s.Path, err)
	}

	doc := models.NewDocument()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return engine.PersistenceError("decoding "+s.Path, err)
		}
	}
	if err := checkRecords(doc); err != nil {
		return engine.PersistenceError("decoding "+s.Path, err)
	}
	doc.Normalize()
	s.doc = doc

	log.Info().
		Str("path", s.Path).
		Int("communities", len(doc.Communities)).
		Int("homes", len(doc.Homes)).
		Msg("Loaded existing document")
	return nil
}

// checkRecords rejects null entries, which decode to nil records
func checkRecords(doc *models.Document) error {
	for id, c := range doc.Communities {
		if c == nil {
			return fmt.Errorf("community %q is null", id)
		}
	}
	for id, h := range doc.Homes {
		if h == nil {
			return fmt.Errorf("home %q is null", id)
		}
	}
	return nil
}

// Upsert inserts the record or replaces the one with the same id wholesale
func (s *Store) Upsert(r models.Record) error {
	switch rec := r.(type) {
	case *models.Community:
		rec.Normalize()
		s.doc.Communities[rec.ID] = rec
	case *models.Home:
		if rec.Images == nil {
			rec.Images = []string{}
		}
		s.doc.Homes[rec.ID] = rec
	default:
		return fmt.Errorf("unsupported record type %T", r)
	}
	return nil
}

// Document returns the in-memory document
func (s *Store) Document() *models.Document {
	return s.doc
}

// Encode renders the document exactly as Flush writes it
func (s *Store) Encode() ([]byte, error) {
	s.doc.Normalize()
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Flush atomically replaces the file at Path with the current document
func (s *Store) Flush() error {
	data, err := s.Encode()
	if err != nil {
		return engine.PersistenceError("encoding document", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return engine.PersistenceError("creating "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return engine.PersistenceError("creating temp file", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return engine.PersistenceError("writing temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return engine.PersistenceError("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return engine.PersistenceError("closing temp file", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return engine.PersistenceError("setting permissions", err)
	}
	if err := rename(tmpPath, s.Path); err != nil {
		return engine.PersistenceError("replacing "+s.Path, err)
	}
	committed = true

	syncDir(dir)

	log.Info().
		Str("path", s.Path).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Int("communities", len(s.doc.Communities)).
		Int("homes", len(s.doc.Homes)).
		Msg("Document flushed")
	return nil
}

// syncDir makes the rename durable where the platform allows it
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
