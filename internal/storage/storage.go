// Package storage persists track scores, either in a JSON file or in sqlite.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/keshon/beatsbot/datastore"
)

// Backend is a durable uri -> score store.
type Backend interface {
	Get(uri string) (int, bool)
	Set(uri string, score int) error
	ForEach(visit func(uri string, score int))
	Close() error
}

// Open returns the backend for driver ("json" or "sqlite") at location.
func Open(driver, location string) (Backend, error) {
	switch strings.ToLower(driver) {
	case "", "json":
		return New(location)
	case "sqlite":
		return NewSQL(location)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

// Storage keeps scores in a datastore file keyed by track uri.
type Storage struct {
	ds *datastore.DataStore
}

// New opens the score file at filePath. A corrupt file is moved aside and
// the store starts empty.
func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if errors.Is(err, datastore.ErrCorrupt) {
		aside := fmt.Sprintf("%s.corrupt.%s", filePath, time.Now().Format("20060102_150405"))
		if renameErr := os.Rename(filePath, aside); renameErr != nil {
			return nil, fmt.Errorf("move corrupt score file aside: %w", renameErr)
		}
		log.Printf("[WARN] [Storage] %v; moved it to %s and starting empty", err, aside)
		ds, err = datastore.New(filePath)
	}
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Get returns the stored score. Values that are not integers, including
// numeric strings written by older deployments, are parsed leniently and
// read as 0 when unusable.
func (s *Storage) Get(uri string) (int, bool) {
	raw, ok := s.ds.Get(uri)
	if !ok {
		return 0, false
	}
	return parseScore(uri, raw), true
}

// Set writes the score and flushes the file.
func (s *Storage) Set(uri string, score int) error {
	if err := s.ds.Add(uri, score); err != nil {
		return err
	}
	return s.ds.SaveToFile()
}

func (s *Storage) ForEach(visit func(uri string, score int)) {
	type entry struct {
		uri string
		raw json.RawMessage
	}
	var entries []entry
	s.ds.ForEach(func(k string, v json.RawMessage) {
		entries = append(entries, entry{k, v})
	})
	for _, e := range entries {
		visit(e.uri, parseScore(e.uri, e.raw))
	}
}

func parseScore(uri string, raw json.RawMessage) int {
	var n json.Number
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err == nil {
		switch t := v.(type) {
		case json.Number:
			n = t
		case string:
			n = json.Number(strings.TrimSpace(t))
		}
	}

	// Integer prefix, so "3.7" and "12abc" read as 3 and 12.
	if i, ok := leadingInt(string(n)); ok {
		return i
	}
	log.Printf("[WARN] [Storage] Malformed score for %s: %s", uri, string(raw))
	return 0
}

func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	i, err := strconv.Atoi(s[:end])
	return i, err == nil
}
