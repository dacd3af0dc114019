package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/pinecone"
)

func TestInstrumentVectorStorePassThrough(t *testing.T) {
	inner := &fakeInstrumentedInner{}
	metrics := observability.NewMetrics()
	vs := instrumentVectorStore("pinecone", inner, metrics)
	if vs == nil {
		t.Fatalf("instrumentVectorStore: expected non-nil wrapper")
	}

	err := vs.Upsert(context.Background(), "ns", []pinecone.Vector{{ID: "v1", Values: []float32{1, 2, 3}}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got := vs.Namespace("u-1"); got != "cp:u-1" {
		t.Fatalf("Namespace: want=cp:u-1 got=%q", got)
	}
	if inner.upsertCalls != 1 {
		t.Fatalf("upsert calls: want=1 got=%d", inner.upsertCalls)
	}

	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	want := `cp_vector_store_operations_total{provider="pinecone",operation="upsert",outcome="ok"} 1`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("metrics missing %q:\n%s", want, buf.String())
	}
}

func TestInstrumentVectorStoreErrorPassThrough(t *testing.T) {
	want := errors.New("upsert failed")
	inner := &fakeInstrumentedInner{upsertErr: want}
	vs := instrumentVectorStore("pinecone", inner, nil)

	err := vs.Upsert(context.Background(), "ns", nil)
	if !errors.Is(err, want) {
		t.Fatalf("Upsert: expected error %v, got=%v", want, err)
	}
}

func TestInstrumentVectorStoreNilInner(t *testing.T) {
	if vs := instrumentVectorStore("pinecone", nil, nil); vs != nil {
		t.Fatalf("instrumentVectorStore(nil): want=nil got=%T", vs)
	}
}

type fakeInstrumentedInner struct {
	upsertCalls int
	upsertErr   error
}

func (f *fakeInstrumentedInner) Upsert(_ context.Context, _ string, _ []pinecone.Vector) error {
	f.upsertCalls++
	return f.upsertErr
}

func (f *fakeInstrumentedInner) Namespace(ns string) string {
	return "cp:" + ns
}
