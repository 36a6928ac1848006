// Copyright (c) YugaByte, Inc.

package store

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/yugabyte/tabletmeta/metadata"
	"github.com/yugabyte/tabletmeta/state"
)

// ClosableIterator walks tablet location states in metadata row-key order.
// Each store Iterator call opens a fresh scan; iterators share no cursor
// state.
type ClosableIterator interface {
	// Next advances to the next tablet. It returns false when the scan is
	// exhausted or has failed; check Err afterwards.
	Next() bool
	// Value returns the state positioned by the last successful Next.
	Value() *state.TabletLocationState
	Err() error
	Close() error
}

type tabletIterator struct {
	rows    metadata.RowIterator
	current *state.TabletLocationState
	err     error
}

func (it *tabletIterator) Next() bool {
	if it.err != nil || it.rows == nil {
		return false
	}
	for {
		row, ok := it.rows.Next()
		if !ok {
			it.err = it.rows.Err()
			return false
		}
		tls, err := decodeRow(row)
		if err != nil {
			it.err = err
			return false
		}
		if tls == nil {
			// Row carries no location facts; skip it.
			continue
		}
		it.current = tls
		return true
	}
}

func (it *tabletIterator) Value() *state.TabletLocationState {
	return it.current
}

func (it *tabletIterator) Err() error {
	return it.err
}

func (it *tabletIterator) Close() error {
	if it.rows == nil {
		return nil
	}
	return it.rows.Close()
}

func parseExtent(key []byte) (state.KeyExtent, error) {
	if i := bytes.IndexByte(key, ';'); i > 0 {
		return state.KeyExtent{
			TableID: string(key[:i]),
			EndRow:  append([]byte(nil), key[i+1:]...),
		}, nil
	}
	if i := bytes.IndexByte(key, '<'); i > 0 && i == len(key)-1 {
		return state.KeyExtent{TableID: string(key[:i])}, nil
	}
	return state.KeyExtent{}, errors.Errorf("malformed tablet metadata row key %q", key)
}

// decodeRow reconstructs one tablet's location state from its metadata row.
// A row whose current and future locations are both set is corrupt and
// surfaces as an error; the coordinator must not act on it.
func decodeRow(row *metadata.Row) (*state.TabletLocationState, error) {
	extent, err := parseExtent(row.Key)
	if err != nil {
		return nil, err
	}
	tls := &state.TabletLocationState{Extent: extent}
	for _, column := range row.Columns {
		switch column.Family {
		case metadata.FamilyCurrentLocation:
			if tls.Current != nil {
				return nil, errors.Errorf("tablet %v has multiple current locations", extent)
			}
			tls.Current = &state.ServerInstance{
				HostPort: string(column.Value),
				Session:  column.Qualifier,
			}
		case metadata.FamilyFutureLocation:
			if tls.Future != nil {
				return nil, errors.Errorf("tablet %v has multiple future locations", extent)
			}
			tls.Future = &state.ServerInstance{
				HostPort: string(column.Value),
				Session:  column.Qualifier,
			}
		case metadata.FamilyLastLocation:
			tls.Last = &state.ServerInstance{
				HostPort: string(column.Value),
				Session:  column.Qualifier,
			}
		case metadata.FamilySuspend:
			suspend, err := state.ParseSuspendingServer(column.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "tablet %v", extent)
			}
			tls.Suspend = suspend
		case metadata.FamilyLog:
			tls.WALs = append(tls.WALs, string(column.Value))
		}
	}
	if tls.Current != nil && tls.Future != nil {
		return nil, errors.Errorf(
			"tablet %v is both assigned to %v and loading on %v",
			extent, tls.Future, tls.Current)
	}
	if tls.Current == nil && tls.Future == nil && tls.Last == nil &&
		tls.Suspend == nil && tls.WALs == nil {
		return nil, nil
	}
	return tls, nil
}
