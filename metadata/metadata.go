// Copyright (c) YugaByte, Inc.

// Package metadata models the durable metadata table that holds tablet
// location state: one row per tablet, columns addressed by family and
// qualifier. It provides the native mutation format and the client used to
// scan and mutate the table.
package metadata

import "context"

// Column families of a tablet metadata row.
const (
	FamilyCurrentLocation = "loc"
	FamilyFutureLocation  = "future"
	FamilyLastLocation    = "last"
	FamilySuspend         = "suspend"
	FamilyLog             = "log"
)

// SuspendQualifier is the single column qualifier used in the suspend family.
const SuspendQualifier = "loc"

// Column is one cell of a metadata row.
type Column struct {
	Family    string
	Qualifier string
	Value     []byte
}

// ColumnRef addresses columns to delete. An empty qualifier addresses the
// whole family.
type ColumnRef struct {
	Family    string
	Qualifier string
}

// Row is one tablet's metadata row as returned by a scan, columns in
// family/qualifier order.
type Row struct {
	Key     []byte
	Columns []Column
}

// Mutation is the native write unit of the metadata table: all puts and
// deletes for one row, applied atomically.
type Mutation struct {
	Row     []byte
	Puts    []Column
	Deletes []ColumnRef
}

// Size estimates the buffered memory footprint of the mutation.
func (m *Mutation) Size() int64 {
	size := int64(len(m.Row))
	for _, put := range m.Puts {
		size += int64(len(put.Family) + len(put.Qualifier) + len(put.Value))
	}
	for _, del := range m.Deletes {
		size += int64(len(del.Family) + len(del.Qualifier))
	}
	return size
}

// RowIterator walks scan results in row-key order.
type RowIterator interface {
	// Next returns the next row, or nil and false when the scan is done or
	// has failed.
	Next() (*Row, bool)
	// Err reports the first failure seen by the iterator.
	Err() error
	Close() error
}

// Client is the shared handle to the metadata table. One client is shared
// across all store operations; batch committers borrow it and never close it.
type Client interface {
	// Scan opens a fresh key-ordered scan over [start, end). A nil end scans
	// to the end of the table.
	Scan(ctx context.Context, start, end []byte) (RowIterator, error)
	// Apply durably applies the mutations. Each mutation is atomic for its
	// row; there is no ordering or atomicity across mutations.
	Apply(ctx context.Context, mutations []Mutation) error
	Close() error
}
