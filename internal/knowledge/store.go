package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	SourceTrip = "trip"
	SourceFAQ  = "faq"
)

var ErrNotFound = errors.New("chunk not found")

// Chunk is one retrievable piece of text.
type Chunk struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Title     string            `json:"title,omitempty"`
	Text      string            `json:"text"`
	Embedding []float32         `json:"embedding,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Store keeps chunks in Badger under "chunk/<source>/<id>".
type Store struct {
	db *badger.DB
}

// Open opens the store at dir; an empty dir keeps everything in memory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func chunkKey(source, id string) []byte {
	return []byte("chunk/" + source + "/" + id)
}

func sourcePrefix(source string) []byte {
	return []byte("chunk/" + source + "/")
}

func (s *Store) Put(chunks ...Chunk) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, c := range chunks {
			body, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := txn.Set(chunkKey(c.Source, c.ID), body); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Get(source, id string) (Chunk, error) {
	var c Chunk
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(source, id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})
	return c, err
}

// List returns every chunk of source in key order.
func (s *Store) List(source string) ([]Chunk, error) {
	out := []Chunk{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := sourcePrefix(source)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c Chunk
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

// ReplaceSource drops every chunk of source and stores chunks instead.
func (s *Store) ReplaceSource(source string, chunks []Chunk) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := sourcePrefix(source)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Source = source
	}
	if len(chunks) == 0 {
		return nil
	}
	return s.Put(chunks...)
}

func (s *Store) HasSource(source string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := sourcePrefix(source)
		it.Seek(prefix)
		found = it.ValidForPrefix(prefix)
		return nil
	})
	return found, err
}
