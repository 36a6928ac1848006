// Copyright (c) YugaByte, Inc.

package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/yugabyte/gocql"

	"github.com/yugabyte/tabletmeta/util"
)

// cqlClient implements Client against a YCQL keyspace. The metadata table is
// range sharded on row_key, so a scan comes back in key order:
//
//	CREATE TABLE tablet_metadata (
//	    row_key blob,
//	    family text,
//	    qualifier text,
//	    value blob,
//	    PRIMARY KEY (row_key, family, qualifier)
//	);
type cqlClient struct {
	session *gocql.Session
	table   string
	log     util.Logger
}

// NewCqlClient connects to the metadata keyspace described by the config and
// returns a Client over it.
func NewCqlClient(config *util.Config, log util.Logger) (Client, error) {
	cluster := gocql.NewCluster(config.GetStringSlice(util.MetadataHostsKey)...)
	cluster.Keyspace = config.GetString(util.MetadataKeyspaceKey)
	// Use the same timeout as the Java driver.
	cluster.Timeout = config.GetDuration(util.MetadataTimeoutKey, time.Second)
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metadata session")
	}
	return &cqlClient{
		session: session,
		table:   config.GetString(util.MetadataTableKey),
		log:     log,
	}, nil
}

func (c *cqlClient) Scan(ctx context.Context, start, end []byte) (RowIterator, error) {
	var query *gocql.Query
	if end == nil {
		query = c.session.Query(
			fmt.Sprintf(
				"SELECT row_key, family, qualifier, value FROM %s WHERE row_key >= ?",
				c.table,
			),
			start,
		)
	} else {
		query = c.session.Query(
			fmt.Sprintf(
				"SELECT row_key, family, qualifier, value FROM %s WHERE row_key >= ? AND row_key < ?",
				c.table,
			),
			start, end,
		)
	}
	return &cqlRowIterator{iter: query.WithContext(ctx).Iter()}, nil
}

func (c *cqlClient) Apply(ctx context.Context, mutations []Mutation) error {
	for i := range mutations {
		mutation := &mutations[i]
		// One logged single-partition batch per mutation keeps the per-tablet
		// write unit atomic.
		batch := c.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
		for _, put := range mutation.Puts {
			batch.Query(
				fmt.Sprintf(
					"INSERT INTO %s (row_key, family, qualifier, value) VALUES (?, ?, ?, ?)",
					c.table,
				),
				mutation.Row, put.Family, put.Qualifier, put.Value,
			)
		}
		for _, del := range mutation.Deletes {
			if del.Qualifier == "" {
				batch.Query(
					fmt.Sprintf("DELETE FROM %s WHERE row_key = ? AND family = ?", c.table),
					mutation.Row, del.Family,
				)
			} else {
				batch.Query(
					fmt.Sprintf(
						"DELETE FROM %s WHERE row_key = ? AND family = ? AND qualifier = ?",
						c.table,
					),
					mutation.Row, del.Family, del.Qualifier,
				)
			}
		}
		if err := c.session.ExecuteBatch(batch); err != nil {
			return errors.Wrapf(err, "failed to apply mutation for row %q", mutation.Row)
		}
	}
	return nil
}

func (c *cqlClient) Close() error {
	c.session.Close()
	return nil
}

// cqlRowIterator groups the flat (row_key, family, qualifier, value) result
// stream into one Row per row key.
type cqlRowIterator struct {
	iter    *gocql.Iter
	pending *Row
	err     error
	done    bool
}

func (it *cqlRowIterator) Next() (*Row, bool) {
	if it.done {
		return nil, false
	}
	var key, value []byte
	var family, qualifier string
	for it.iter.Scan(&key, &family, &qualifier, &value) {
		column := Column{Family: family, Qualifier: qualifier, Value: append([]byte(nil), value...)}
		rowKey := append([]byte(nil), key...)
		if it.pending == nil {
			it.pending = &Row{Key: rowKey, Columns: []Column{column}}
			continue
		}
		if string(it.pending.Key) == string(rowKey) {
			it.pending.Columns = append(it.pending.Columns, column)
			continue
		}
		finished := it.pending
		it.pending = &Row{Key: rowKey, Columns: []Column{column}}
		return finished, true
	}
	it.done = true
	it.err = it.iter.Close()
	if it.err != nil || it.pending == nil {
		return nil, false
	}
	finished := it.pending
	it.pending = nil
	return finished, true
}

func (it *cqlRowIterator) Err() error {
	return it.err
}

func (it *cqlRowIterator) Close() error {
	if !it.done {
		it.done = true
		it.err = it.iter.Close()
	}
	return it.err
}
