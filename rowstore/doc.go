// Package rowstore defines the partitioned row store contract the batch job
// engine is built on, plus two reference implementations used by tests and
// local development.
//
// A RowStore models a single table of rows keyed by (PartitionKey, RowKey),
// queryable by partition with a row-key lower bound. This mirrors the shape
// of Azure Table Storage (and similar partitioned key/value stores) without
// committing to any one vendor SDK; production adapters live outside this
// module.
package rowstore
