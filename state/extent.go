// Copyright (c) YugaByte, Inc.

package state

import "fmt"

// KeyExtent identifies one tablet: the table it belongs to and the exclusive
// upper bound of its key range. A nil EndRow marks the last tablet of the
// table.
type KeyExtent struct {
	TableID string
	EndRow  []byte
}

// MetaRow derives the tablet's metadata row key. The mapping is
// deterministic: "<tableID>;<endRow>", or "<tableID><" for the last tablet.
func (e KeyExtent) MetaRow() []byte {
	if e.EndRow == nil {
		return []byte(e.TableID + "<")
	}
	row := make([]byte, 0, len(e.TableID)+1+len(e.EndRow))
	row = append(row, e.TableID...)
	row = append(row, ';')
	row = append(row, e.EndRow...)
	return row
}

func (e KeyExtent) String() string {
	return string(e.MetaRow())
}

// Assignment is a proposed binding of a tablet to a target server, produced
// by the balancer and consumed by the state store. It is never persisted as
// its own entity.
type Assignment struct {
	Extent KeyExtent
	Server ServerInstance
}

func (a Assignment) String() string {
	return fmt.Sprintf("%v -> %v", a.Extent, a.Server)
}
