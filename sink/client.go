// Package sink persists parsed test results to a Lode dataset. Records
// are Hive-partitioned by source, day, job id, and record kind, encoded
// as JSONL. The sink plugs into the follow loop as a notifier and
// flushes per its configured mode: every poll, or once at session end.
package sink

import (
	"context"

	"github.com/justapithecus/lode/lode"
)

// DefaultDataset is the Lode dataset ID for result records.
const DefaultDataset = "adit"

// Client abstracts the Lode storage client. Stubs are used for testing.
type Client interface {
	// WriteRecords writes a batch of records, preserving batch order.
	WriteRecords(ctx context.Context, records []any) error

	// Close releases client resources.
	Close() error
}

// LodeClient is the real Lode-backed implementation of Client.
// Uses Lode's HiveLayout with partition keys: source/day/job_id/kind.
type LodeClient struct {
	dataset lode.Dataset
}

// NewLodeClient creates a Lode client with filesystem storage rooted at
// root.
func NewLodeClient(dataset, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(dataset, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a Lode client with a custom store
// factory. Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(dataset string, factory lode.StoreFactory) (*LodeClient, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout("source", "day", "job_id", "kind"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, err
	}
	return &LodeClient{dataset: ds}, nil
}

// WriteRecords implements Client.
func (c *LodeClient) WriteRecords(ctx context.Context, records []any) error {
	if len(records) == 0 {
		return nil
	}
	_, err := c.dataset.Write(ctx, records, lode.Metadata{})
	return err
}

// Close implements Client.
func (c *LodeClient) Close() error {
	// Dataset doesn't require explicit close in current Lode API
	return nil
}

// Verify LodeClient implements Client.
var _ Client = (*LodeClient)(nil)
