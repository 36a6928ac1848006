// Copyright (c) YugaByte, Inc.

// Package store persists tablet location transitions in the metadata table
// on behalf of the cluster coordinator, and reconstructs cluster state by
// scanning it back.
package store

import (
	"context"

	"github.com/yugabyte/tabletmeta/committer"
	"github.com/yugabyte/tabletmeta/metadata"
	"github.com/yugabyte/tabletmeta/state"
	"github.com/yugabyte/tabletmeta/util"
)

// NoSuspension is the suspension timestamp that requests no marker.
const NoSuspension int64 = -1

// TabletStateStore is the contract between the coordinator and the persisted
// tablet location state. Atomicity holds per tablet, never across tablets:
// a failed operation leaves an unknown subset of its tablets unwritten, and
// nothing is rolled back. Callers serialize transitions per tablet.
type TabletStateStore interface {
	// Iterator opens a fresh scan of all tablets' persisted state in row-key
	// order.
	Iterator(ctx context.Context) ClosableIterator

	// SetLocations records that each assignment's tablet is now loaded on
	// its target server.
	SetLocations(ctx context.Context, assignments []state.Assignment) error

	// SetFutureLocations announces intended assignments before load
	// confirmation.
	SetFutureLocations(ctx context.Context, assignments []state.Assignment) error

	// Unassign takes the tablets off their current servers, attaching the
	// dead servers' log references for replay.
	Unassign(
		ctx context.Context,
		tablets []*state.TabletLocationState,
		logsForDeadServers map[state.ServerInstance][]string,
	) error

	// Suspend is Unassign plus a suspension marker recording when the
	// tablets' server died, deferring reassignment.
	Suspend(
		ctx context.Context,
		tablets []*state.TabletLocationState,
		logsForDeadServers map[state.ServerInstance][]string,
		suspensionTime int64,
	) error

	// Unsuspend lifts suspension markers. Tablets without one are skipped.
	Unsuspend(ctx context.Context, tablets []*state.TabletLocationState) error

	// Name is a stable label for diagnostics.
	Name() string
}

// metaStateStore is the production TabletStateStore over a metadata table
// client.
type metaStateStore struct {
	client metadata.Client
	cfg    committer.Config
	log    util.Logger
	name   string
}

// NewMetaStateStore returns the store for normal tablets. The client is
// shared and stays open across operations; every mutation operation opens
// its own committer batch over it.
func NewMetaStateStore(
	client metadata.Client,
	config *util.Config,
	log util.Logger,
) TabletStateStore {
	return newStateStore(client, config, log, "Normal Tablets")
}

// NewRootStateStore returns the store variant for the root tablets that hold
// the metadata table's own location state. The client must target the root
// metadata table.
func NewRootStateStore(
	client metadata.Client,
	config *util.Config,
	log util.Logger,
) TabletStateStore {
	return newStateStore(client, config, log, "Root Tablets")
}

func newStateStore(
	client metadata.Client,
	config *util.Config,
	log util.Logger,
	name string,
) TabletStateStore {
	return &metaStateStore{
		client: client,
		cfg:    committer.ConfigFromUtil(config, name),
		log:    log.With("store", name),
		name:   name,
	}
}

func (s *metaStateStore) Iterator(ctx context.Context) ClosableIterator {
	rows, err := s.client.Scan(ctx, []byte{}, nil)
	if err != nil {
		return &tabletIterator{err: NewSetupError(err)}
	}
	return &tabletIterator{rows: rows}
}

func (s *metaStateStore) SetLocations(
	ctx context.Context,
	assignments []state.Assignment,
) error {
	return s.commit(ctx, len(assignments), func(w *committer.BatchCommitter) error {
		for _, assignment := range assignments {
			if err := w.Add(state.AssignmentChangeset(assignment)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *metaStateStore) SetFutureLocations(
	ctx context.Context,
	assignments []state.Assignment,
) error {
	return s.commit(ctx, len(assignments), func(w *committer.BatchCommitter) error {
		for _, assignment := range assignments {
			if err := w.Add(state.FutureAssignmentChangeset(assignment)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *metaStateStore) Unassign(
	ctx context.Context,
	tablets []*state.TabletLocationState,
	logsForDeadServers map[state.ServerInstance][]string,
) error {
	return s.Suspend(ctx, tablets, logsForDeadServers, NoSuspension)
}

func (s *metaStateStore) Suspend(
	ctx context.Context,
	tablets []*state.TabletLocationState,
	logsForDeadServers map[state.ServerInstance][]string,
	suspensionTime int64,
) error {
	return s.commit(ctx, len(tablets), func(w *committer.BatchCommitter) error {
		for _, tls := range tablets {
			cs := state.UnassignChangeset(tls, logsForDeadServers, suspensionTime)
			if err := w.Add(cs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *metaStateStore) Unsuspend(
	ctx context.Context,
	tablets []*state.TabletLocationState,
) error {
	return s.commit(ctx, len(tablets), func(w *committer.BatchCommitter) error {
		for _, tls := range tablets {
			cs, ok := state.UnsuspendChangeset(tls)
			if !ok {
				continue
			}
			if err := w.Add(cs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *metaStateStore) Name() string {
	return s.name
}

// commit runs one logical batch: open a committer, build and add every
// changeset, and close unconditionally. The close failure already aggregates
// every write failure recorded during the batch, so it is the single source
// of truth for the result.
func (s *metaStateStore) commit(
	ctx context.Context,
	tablets int,
	build func(w *committer.BatchCommitter) error,
) error {
	w, err := committer.New(ctx, s.client, s.cfg, s.log)
	if err != nil {
		return NewSetupError(err)
	}
	buildErr := build(w)
	if closeErr := w.Close(); closeErr != nil {
		return NewCommitError(closeErr)
	}
	if buildErr != nil {
		return NewCommitError(buildErr)
	}
	s.log.Debugf("Committed state transitions for %d tablets", tablets)
	return nil
}
