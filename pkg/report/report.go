// Package report persists apply outcomes. The engine itself keeps no
// history; a sink is an external, opt-in collaborator the CLI attaches
// when configured. Render farms point every node at one MongoDB
// collection and get a queryable apply log for free.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plmtools/lookconf/pkg/authoring"
)

// Record is one stored apply outcome with its context.
type Record struct {
	ID       uuid.UUID         `bson:"_id" json:"id"`
	Document string            `bson:"document" json:"document"` // source PLM-XML path
	Service  string            `bson:"service" json:"service"`   // authoring service base URL
	Outcome  authoring.Outcome `bson:"outcome" json:"outcome"`
	StoredAt time.Time         `bson:"stored_at" json:"stored_at"`
}

// NewRecord wraps an outcome for storage. The record reuses the outcome's
// ID so log entries and service-side traces correlate.
func NewRecord(document, service string, outcome authoring.Outcome) Record {
	return Record{
		ID:       outcome.ID,
		Document: document,
		Service:  service,
		Outcome:  outcome,
		StoredAt: time.Now().UTC(),
	}
}

// Sink stores apply records.
type Sink interface {
	Store(ctx context.Context, r Record) error
	Close(ctx context.Context) error
}

// NullSink discards records. Used when no report store is configured.
type NullSink struct{}

// Store does nothing.
func (NullSink) Store(ctx context.Context, r Record) error { return nil }

// Close does nothing.
func (NullSink) Close(ctx context.Context) error { return nil }

// Ensure NullSink implements Sink.
var _ Sink = NullSink{}
