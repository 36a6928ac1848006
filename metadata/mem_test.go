// Copyright (c) YugaByte, Inc.

package metadata

import (
	"context"
	"testing"
)

func scanKeys(t *testing.T, client Client) []string {
	t.Helper()
	iter, err := client.Scan(context.Background(), []byte{}, nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer iter.Close()
	var keys []string
	for {
		row, ok := iter.Next()
		if !ok {
			break
		}
		keys = append(keys, string(row.Key))
	}
	if err := iter.Err(); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return keys
}

func TestMemClientScanOrder(t *testing.T) {
	client := NewMemClient()
	ctx := context.Background()
	for _, key := range []string{"t1;m", "t1;a", "t1<", "t0;z"} {
		err := client.Apply(ctx, []Mutation{{
			Row:  []byte(key),
			Puts: []Column{{Family: FamilyCurrentLocation, Qualifier: "s", Value: []byte("h:1")}},
		}})
		if err != nil {
			t.Fatalf("Failed to apply mutation: %v", err)
		}
	}
	keys := scanKeys(t, client)
	// ';' sorts before '<' in ASCII.
	want := []string{"t0;z", "t1;a", "t1;m", "t1<"}
	if len(keys) != len(want) {
		t.Fatalf("Expected %d rows but got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Expected key %s at position %d but got %s", want[i], i, keys[i])
		}
	}
}

func TestMemClientFamilyDelete(t *testing.T) {
	client := NewMemClient()
	ctx := context.Background()
	err := client.Apply(ctx, []Mutation{{
		Row: []byte("t1;a"),
		Puts: []Column{
			{Family: FamilyLog, Qualifier: "h/wal1", Value: []byte("wal1")},
			{Family: FamilyLog, Qualifier: "h/wal2", Value: []byte("wal2")},
			{Family: FamilySuspend, Qualifier: SuspendQualifier, Value: []byte("h:1|5")},
		},
	}})
	if err != nil {
		t.Fatalf("Failed to apply mutation: %v", err)
	}
	err = client.Apply(ctx, []Mutation{{
		Row:     []byte("t1;a"),
		Deletes: []ColumnRef{{Family: FamilyLog}},
	}})
	if err != nil {
		t.Fatalf("Failed to apply delete: %v", err)
	}

	iter, err := client.Scan(ctx, []byte{}, nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer iter.Close()
	row, ok := iter.Next()
	if !ok {
		t.Fatalf("Expected one row")
	}
	if len(row.Columns) != 1 || row.Columns[0].Family != FamilySuspend {
		t.Errorf("Expected only the suspend column to survive, got %+v", row.Columns)
	}
}

func TestMemClientDropsEmptyRows(t *testing.T) {
	client := NewMemClient()
	ctx := context.Background()
	err := client.Apply(ctx, []Mutation{{
		Row:  []byte("t1;a"),
		Puts: []Column{{Family: FamilySuspend, Qualifier: SuspendQualifier, Value: []byte("h:1|5")}},
	}})
	if err != nil {
		t.Fatalf("Failed to apply mutation: %v", err)
	}
	err = client.Apply(ctx, []Mutation{{
		Row:     []byte("t1;a"),
		Deletes: []ColumnRef{{Family: FamilySuspend}},
	}})
	if err != nil {
		t.Fatalf("Failed to apply delete: %v", err)
	}
	if keys := scanKeys(t, client); len(keys) != 0 {
		t.Errorf("Expected no rows but got %v", keys)
	}
}

func TestMemClientScanRange(t *testing.T) {
	client := NewMemClient()
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c", "d"} {
		err := client.Apply(ctx, []Mutation{{
			Row:  []byte(key),
			Puts: []Column{{Family: FamilyLastLocation, Qualifier: "s", Value: []byte("h:1")}},
		}})
		if err != nil {
			t.Fatalf("Failed to apply mutation: %v", err)
		}
	}
	iter, err := client.Scan(ctx, []byte("b"), []byte("d"))
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer iter.Close()
	var keys []string
	for {
		row, ok := iter.Next()
		if !ok {
			break
		}
		keys = append(keys, string(row.Key))
	}
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "c" {
		t.Errorf("Expected [b c] but got %v", keys)
	}
}
