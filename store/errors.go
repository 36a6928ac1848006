// Copyright (c) YugaByte, Inc.

package store

import "fmt"

// FailureKind tags the two failure classes of the state store.
type FailureKind int

const (
	// SetupFailure means no writable session could be acquired before any
	// changeset was submitted.
	SetupFailure FailureKind = iota
	// CommitFailure means the committer could not durably apply one or more
	// changesets.
	CommitFailure
)

func (kind FailureKind) String() string {
	switch kind {
	case SetupFailure:
		return "setup"
	case CommitFailure:
		return "commit"
	default:
		return "unknown"
	}
}

// DistributedStoreError is the single caller-facing error of every store
// operation. Both setup and commit failures are wrapped into it so callers
// write one failure path; the embedded cause is reachable through Unwrap.
type DistributedStoreError struct {
	Kind  FailureKind
	cause error
}

// NewSetupError wraps a session-acquisition failure.
func NewSetupError(cause error) *DistributedStoreError {
	return &DistributedStoreError{Kind: SetupFailure, cause: cause}
}

// NewCommitError wraps a flush failure.
func NewCommitError(cause error) *DistributedStoreError {
	return &DistributedStoreError{Kind: CommitFailure, cause: cause}
}

func (e *DistributedStoreError) Error() string {
	return fmt.Sprintf("distributed store %s failure: %v", e.Kind, e.cause)
}

func (e *DistributedStoreError) Unwrap() error {
	return e.cause
}
