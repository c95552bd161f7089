package report

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/plmtools/lookconf/pkg/authoring"
)

func TestNewRecordCorrelatesWithOutcome(t *testing.T) {
	out := authoring.Outcome{
		ID:      uuid.New(),
		Config:  "AB+CD",
		Success: true,
	}

	r := NewRecord("/data/interior.plmxml", "http://render-07:1234/v2///", out)

	if r.ID != out.ID {
		t.Error("record must reuse the outcome ID")
	}
	if r.Document != "/data/interior.plmxml" {
		t.Errorf("Document = %q", r.Document)
	}
	if r.StoredAt.IsZero() {
		t.Error("StoredAt must be set")
	}
}

func TestNullSink(t *testing.T) {
	ctx := context.Background()
	var s Sink = NullSink{}

	if err := s.Store(ctx, Record{}); err != nil {
		t.Errorf("Store error: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Errorf("Close error: %v", err)
	}
}
