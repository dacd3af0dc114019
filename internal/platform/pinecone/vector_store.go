package pinecone

import (
	"context"
	"fmt"
	"strings"

	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	Namespace(ns string) string
}

type StoreConfig struct {
	IndexName       string
	IndexHost       string
	NamespacePrefix string
}

type vectorStore struct {
	log       *logger.Logger
	pc        Client
	indexHost string
	nsPrefix  string
}

func NewVectorStore(ctx context.Context, log *logger.Logger, pc Client, cfg StoreConfig) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}

	host := strings.TrimSpace(cfg.IndexHost)
	nsPrefix := strings.TrimSpace(cfg.NamespacePrefix)
	if nsPrefix == "" {
		nsPrefix = "cp"
	}

	// Without a host, bootstrap via describe_index.
	if host == "" {
		indexName := strings.TrimSpace(cfg.IndexName)
		if indexName == "" {
			return nil, fmt.Errorf("missing PINECONE_INDEX_HOST or PINECONE_INDEX_NAME")
		}
		desc, err := pc.DescribeIndex(ctx, indexName)
		if err != nil {
			return nil, err
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index",
			"index_name", indexName,
			"index_host", host,
		)
	}

	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		indexHost: host,
		nsPrefix:  nsPrefix,
	}, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	ns := s.Namespace(namespace)
	resp, err := s.pc.UpsertVectors(ctx, s.indexHost, UpsertRequest{
		Namespace: ns,
		Vectors:   vectors,
	})
	if err != nil {
		return err
	}
	s.log.Debug("vectors upserted", "namespace", ns, "count", resp.UpsertedCount)
	return nil
}

// Namespace qualifies ns with the configured prefix.
func (s *vectorStore) Namespace(ns string) string {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return s.nsPrefix
	}
	return s.nsPrefix + ":" + ns
}
