// Copyright (c) YugaByte, Inc.

// Package state holds the tablet location data model and the pure changeset
// builder that turns coordinator transitions into per-tablet field edits.
package state

// TabletLocationState is the read-side snapshot of one tablet's persisted
// location facts. It is reconstructed fresh on every metadata scan and never
// mutated in place.
type TabletLocationState struct {
	Extent KeyExtent

	// Current is the server presently serving the tablet, if any.
	Current *ServerInstance
	// Future is the server the tablet is being assigned to, before load
	// confirmation.
	Future *ServerInstance
	// Last is the most recent server that served the tablet, kept as a
	// recovery hint. Never cleared, only overwritten.
	Last *ServerInstance
	// Suspend is set when the tablet's last server died and reassignment is
	// deliberately deferred.
	Suspend *SuspendingServer

	// WALs are the write-ahead-log references present on the row, to be
	// replayed on the next load.
	WALs []string
}

func (tls *TabletLocationState) String() string {
	server := "unassigned"
	switch {
	case tls.Current != nil:
		server = "current " + tls.Current.String()
	case tls.Future != nil:
		server = "future " + tls.Future.String()
	case tls.Suspend != nil:
		server = "suspended " + tls.Suspend.String()
	}
	return tls.Extent.String() + " " + server
}
