// Copyright (c) YugaByte, Inc.

package state

import (
	"fmt"

	"github.com/yugabyte/tabletmeta/metadata"
)

// EditKind discriminates changeset edits.
type EditKind int

const (
	// EditPut writes one column.
	EditPut EditKind = iota
	// EditDelete removes one column, or a whole family when Qualifier is
	// empty.
	EditDelete
)

// Edit is one field-level change of a tablet's metadata row.
type Edit struct {
	Kind      EditKind
	Family    string
	Qualifier string
	Value     []byte
}

// Changeset is the ordered set of field edits to persist for one tablet in
// one operation. It is built by the pure functions below, handed read-only to
// the committer, and discarded after commit. All edits of one changeset ride
// in one atomic write unit.
type Changeset struct {
	row   []byte
	edits []Edit
}

// Row returns the tablet's metadata row key.
func (cs Changeset) Row() []byte {
	return cs.row
}

// Edits returns the ordered edits. Callers must not modify the slice.
func (cs Changeset) Edits() []Edit {
	return cs.edits
}

// IsEmpty reports whether the changeset carries no edits. Empty changesets
// are never submitted.
func (cs Changeset) IsEmpty() bool {
	return len(cs.edits) == 0
}

func put(family, qualifier string, value []byte) Edit {
	return Edit{Kind: EditPut, Family: family, Qualifier: qualifier, Value: value}
}

func deleteFamily(family string) Edit {
	return Edit{Kind: EditDelete, Family: family}
}

func locationColumn(family string, server ServerInstance) Edit {
	return put(family, server.Session, []byte(server.HostPort))
}

// logEntryColumn encodes one write-ahead-log reference, sequence 0, as a
// column of the log family.
func logEntryColumn(hostPort, logPath string) Edit {
	return put(metadata.FamilyLog, fmt.Sprintf("%s/%s", hostPort, logPath), []byte(logPath))
}

// AssignmentChangeset builds the changes for a confirmed load: the target
// server becomes both the current and the last location, and any future
// location or suspension marker is cleared. The put does not clear a current
// location written by another server session; the caller must have
// unassigned any previous server first, or the scanner will report the row
// corrupt.
func AssignmentChangeset(assignment Assignment) Changeset {
	return Changeset{
		row: assignment.Extent.MetaRow(),
		edits: []Edit{
			locationColumn(metadata.FamilyCurrentLocation, assignment.Server),
			locationColumn(metadata.FamilyLastLocation, assignment.Server),
			deleteFamily(metadata.FamilyFutureLocation),
			deleteFamily(metadata.FamilySuspend),
		},
	}
}

// FutureAssignmentChangeset builds the changes that announce an intended
// assignment before load confirmation. Current and last locations are left
// untouched.
func FutureAssignmentChangeset(assignment Assignment) Changeset {
	return Changeset{
		row: assignment.Extent.MetaRow(),
		edits: []Edit{
			deleteFamily(metadata.FamilySuspend),
			locationColumn(metadata.FamilyFutureLocation, assignment.Server),
		},
	}
}

// UnassignChangeset builds the changes that take a tablet off its current
// server. Log references for the departing server are attached for replay on
// the next load. A non-negative suspensionTime additionally records a
// suspension marker for the departing server; otherwise any stale suspension
// marker on the row is cleared.
func UnassignChangeset(
	tls *TabletLocationState,
	logsForDeadServers map[ServerInstance][]string,
	suspensionTime int64,
) Changeset {
	cs := Changeset{row: tls.Extent.MetaRow()}
	if tls.Current != nil {
		cs.edits = append(cs.edits, deleteFamily(metadata.FamilyCurrentLocation))
		if logsForDeadServers != nil {
			for _, logPath := range logsForDeadServers[*tls.Current] {
				cs.edits = append(cs.edits, logEntryColumn(tls.Current.HostPort, logPath))
			}
		}
		if suspensionTime >= 0 {
			suspender := SuspendingServer{
				HostPort:       tls.Current.HostPort,
				SuspensionTime: suspensionTime,
			}
			cs.edits = append(cs.edits,
				put(metadata.FamilySuspend, metadata.SuspendQualifier, suspender.Value()))
		}
	}
	if tls.Suspend != nil && suspensionTime < 0 {
		cs.edits = append(cs.edits, deleteFamily(metadata.FamilySuspend))
	}
	if tls.Future != nil {
		cs.edits = append(cs.edits, deleteFamily(metadata.FamilyFutureLocation))
	}
	return cs
}

// UnsuspendChangeset builds the changes that lift a suspension marker.
// Tablets that carry no marker are skipped: ok is false and nothing is
// submitted.
func UnsuspendChangeset(tls *TabletLocationState) (cs Changeset, ok bool) {
	if tls.Suspend == nil {
		return Changeset{}, false
	}
	return Changeset{
		row:   tls.Extent.MetaRow(),
		edits: []Edit{deleteFamily(metadata.FamilySuspend)},
	}, true
}
