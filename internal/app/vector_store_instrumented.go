package app

import (
	"context"
	"time"

	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/pinecone"
)

type instrumentedVectorStore struct {
	provider string
	inner    pinecone.VectorStore
	metrics  *observability.Metrics
}

func instrumentVectorStore(provider string, inner pinecone.VectorStore, metrics *observability.Metrics) pinecone.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{
		provider: provider,
		inner:    inner,
		metrics:  metrics,
	}
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, namespace, vectors)
	s.metrics.ObserveVectorStore(s.provider, "upsert", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Namespace(ns string) string {
	return s.inner.Namespace(ns)
}
