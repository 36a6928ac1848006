// Copyright (c) YugaByte, Inc.

package committer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/yugabyte/tabletmeta/metadata"
	"github.com/yugabyte/tabletmeta/state"
	"github.com/yugabyte/tabletmeta/util"
)

// recordingClient captures applied batches and optionally fails them.
type recordingClient struct {
	mu       sync.Mutex
	batches  [][]metadata.Mutation
	failWith error
}

func (c *recordingClient) Scan(
	ctx context.Context,
	start, end []byte,
) (metadata.RowIterator, error) {
	return nil, errors.New("not implemented")
}

func (c *recordingClient) Apply(ctx context.Context, mutations []metadata.Mutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.batches = append(c.batches, mutations)
	return nil
}

func (c *recordingClient) Close() error {
	return nil
}

func (c *recordingClient) mutationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, batch := range c.batches {
		count += len(batch)
	}
	return count
}

func testConfig() Config {
	return Config{
		MaxMemory:  1024 * 1024,
		MaxLatency: time.Second,
		Workers:    2,
		StoreName:  "test",
	}
}

func testChangeset(row string) state.Changeset {
	return state.AssignmentChangeset(state.Assignment{
		Extent: state.KeyExtent{TableID: "t1", EndRow: []byte(row)},
		Server: state.ServerInstance{HostPort: "10.0.0.1:9100", Session: "sess1"},
	})
}

func TestCommitterFlushOnClose(t *testing.T) {
	client := &recordingClient{}
	c, err := New(context.Background(), client, testConfig(), util.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create committer: %v", err)
	}
	for _, row := range []string{"a", "b", "c"} {
		if err := c.Add(testChangeset(row)); err != nil {
			t.Fatalf("Failed to add changeset: %v", err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := client.mutationCount(); got != 3 {
		t.Errorf("Expected 3 committed mutations but got %d", got)
	}
}

func TestCommitterFlushOnMaxMemory(t *testing.T) {
	client := &recordingClient{}
	cfg := testConfig()
	cfg.MaxMemory = 1
	c, err := New(context.Background(), client, cfg, util.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create committer: %v", err)
	}
	if err := c.Add(testChangeset("a")); err != nil {
		t.Fatalf("Failed to add changeset: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := client.mutationCount(); got != 1 {
		t.Errorf("Expected the mutation to be flushed before close, got %d", got)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestCommitterSkipsEmptyChangesets(t *testing.T) {
	client := &recordingClient{}
	c, err := New(context.Background(), client, testConfig(), util.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create committer: %v", err)
	}
	tls := &state.TabletLocationState{Extent: state.KeyExtent{TableID: "t1"}}
	if err := c.Add(state.UnassignChangeset(tls, nil, -1)); err != nil {
		t.Fatalf("Failed to add empty changeset: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := client.mutationCount(); got != 0 {
		t.Errorf("Expected no committed mutations but got %d", got)
	}
}

func TestCommitterSurfacesWriteFailure(t *testing.T) {
	client := &recordingClient{failWith: errors.New("mutation rejected")}
	c, err := New(context.Background(), client, testConfig(), util.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create committer: %v", err)
	}
	if err := c.Add(testChangeset("a")); err != nil {
		t.Fatalf("Failed to add changeset: %v", err)
	}
	if err := c.Close(); err == nil {
		t.Errorf("Expected close to report the write failure")
	}
	// Close is idempotent and keeps reporting the failure.
	if err := c.Close(); err == nil {
		t.Errorf("Expected repeated close to report the write failure")
	}
}

func TestCommitterAddAfterClose(t *testing.T) {
	c, err := New(context.Background(), &recordingClient{}, testConfig(), util.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create committer: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := c.Add(testChangeset("a")); err == nil {
		t.Errorf("Expected add after close to fail")
	}
}

func TestCommitterInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 0
	if _, err := New(context.Background(), &recordingClient{}, cfg, util.NewLogger("error")); err == nil {
		t.Errorf("Expected construction to fail with zero workers")
	}
	if _, err := New(context.Background(), nil, testConfig(), util.NewLogger("error")); err == nil {
		t.Errorf("Expected construction to fail without a client")
	}
}

func TestCommitterCloseUnderAggressiveLatency(t *testing.T) {
	// A near-zero latency bound keeps the ticker detaching batches while
	// Close tears the committer down; every iteration must drain cleanly
	// without losing mutations.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				client := &recordingClient{}
				cfg := testConfig()
				cfg.MaxLatency = time.Nanosecond
				c, err := New(context.Background(), client, cfg, util.NewLogger("error"))
				if err != nil {
					t.Errorf("Failed to create committer: %v", err)
					return
				}
				for _, row := range []string{"a", "b", "c"} {
					if err := c.Add(testChangeset(row)); err != nil {
						t.Errorf("Failed to add changeset: %v", err)
						return
					}
				}
				if err := c.Close(); err != nil {
					t.Errorf("Close failed: %v", err)
					return
				}
				if got := client.mutationCount(); got != 3 {
					t.Errorf("Expected 3 committed mutations but got %d", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCommitterFlushThenAdd(t *testing.T) {
	client := &recordingClient{}
	c, err := New(context.Background(), client, testConfig(), util.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create committer: %v", err)
	}
	if err := c.Add(testChangeset("a")); err != nil {
		t.Fatalf("Failed to add changeset: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := client.mutationCount(); got != 1 {
		t.Errorf("Expected 1 committed mutation after flush but got %d", got)
	}
	// The committer stays usable after an intermediate flush.
	if err := c.Add(testChangeset("b")); err != nil {
		t.Fatalf("Failed to add changeset after flush: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := client.mutationCount(); got != 2 {
		t.Errorf("Expected 2 committed mutations but got %d", got)
	}
}

func TestCommitterLatencyFlush(t *testing.T) {
	client := &recordingClient{}
	cfg := testConfig()
	cfg.MaxLatency = 20 * time.Millisecond
	c, err := New(context.Background(), client, cfg, util.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to create committer: %v", err)
	}
	defer c.Close()
	if err := c.Add(testChangeset("a")); err != nil {
		t.Fatalf("Failed to add changeset: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for client.mutationCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Mutation was not flushed within the latency bound")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
