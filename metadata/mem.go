// Copyright (c) YugaByte, Inc.

package metadata

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type columnKey struct {
	family    string
	qualifier string
}

// memClient is an in-memory Client used by tests and by embedded bootstrap
// tooling. Rows are kept sorted by key so scans match the production client's
// ordering contract.
type memClient struct {
	mu     sync.RWMutex
	rows   map[string]map[columnKey][]byte
	closed bool
}

// NewMemClient returns an empty in-memory metadata client.
func NewMemClient() Client {
	return &memClient{rows: map[string]map[columnKey][]byte{}}
}

func (c *memClient) Scan(ctx context.Context, start, end []byte) (RowIterator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, errors.New("metadata client is closed")
	}
	keys := make([]string, 0, len(c.rows))
	for key := range c.rows {
		if bytes.Compare([]byte(key), start) < 0 {
			continue
		}
		if end != nil && bytes.Compare([]byte(key), end) >= 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]*Row, 0, len(keys))
	for _, key := range keys {
		columns := c.rows[key]
		if len(columns) == 0 {
			continue
		}
		row := &Row{Key: []byte(key), Columns: make([]Column, 0, len(columns))}
		for ck, value := range columns {
			row.Columns = append(row.Columns, Column{
				Family:    ck.family,
				Qualifier: ck.qualifier,
				Value:     append([]byte(nil), value...),
			})
		}
		sort.Slice(row.Columns, func(i, j int) bool {
			if row.Columns[i].Family != row.Columns[j].Family {
				return row.Columns[i].Family < row.Columns[j].Family
			}
			return row.Columns[i].Qualifier < row.Columns[j].Qualifier
		})
		rows = append(rows, row)
	}
	return &memRowIterator{rows: rows}, nil
}

func (c *memClient) Apply(ctx context.Context, mutations []Mutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("metadata client is closed")
	}
	for i := range mutations {
		mutation := &mutations[i]
		key := string(mutation.Row)
		columns, ok := c.rows[key]
		if !ok {
			columns = map[columnKey][]byte{}
			c.rows[key] = columns
		}
		// Deletes first, then puts, matching the per-row resolution of the
		// production table.
		for _, del := range mutation.Deletes {
			if del.Qualifier == "" {
				for ck := range columns {
					if ck.family == del.Family {
						delete(columns, ck)
					}
				}
			} else {
				delete(columns, columnKey{family: del.Family, qualifier: del.Qualifier})
			}
		}
		for _, put := range mutation.Puts {
			columns[columnKey{family: put.Family, qualifier: put.Qualifier}] =
				append([]byte(nil), put.Value...)
		}
		if len(columns) == 0 {
			delete(c.rows, key)
		}
	}
	return nil
}

func (c *memClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type memRowIterator struct {
	rows []*Row
	next int
}

func (it *memRowIterator) Next() (*Row, bool) {
	if it.next >= len(it.rows) {
		return nil, false
	}
	row := it.rows[it.next]
	it.next++
	return row, true
}

func (it *memRowIterator) Err() error {
	return nil
}

func (it *memRowIterator) Close() error {
	return nil
}
