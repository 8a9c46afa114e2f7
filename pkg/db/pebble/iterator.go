package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/lumenvm/lumen/pkg/db"
)

type Iterator struct {
	iter *pebble.Iterator
}

func (s *Store) NewIterator(start, end []byte) (db.Iterator, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, fmt.Errorf("creating iterator: %w", err)
	}
	return &Iterator{iter: iter}, nil
}

// Next positions an unpositioned iterator at the first key, then advances.
func (it *Iterator) Next() bool {
	if !it.iter.Valid() {
		return it.iter.First()
	}
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	key := it.iter.Key()
	out := make([]byte, len(key))
	copy(out, key)
	return out
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, ErrIteratorInvalid
	}
	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, fmt.Errorf("reading iterator value: %w", err)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (it *Iterator) Valid() bool {
	return it.iter.Valid()
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
