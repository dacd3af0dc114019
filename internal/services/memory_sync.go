package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/platform/pinecone"
)

var ErrMemorySyncDisabled = errors.New("memory sync disabled: vector store or embedder not configured")

const (
	memoryKindWinning = "winning_prompt_dna"
	memoryKindFlop    = "flop_constraint"
	memoryKindInsight = "industry_insight"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type memoryEntry struct {
	kind string
	text string
}

type memorySync struct {
	log      *logger.Logger
	embedder Embedder
	vectors  pinecone.VectorStore
}

// NewMemorySync returns a syncer that pushes brand learnings into the vector
// store. Either dependency may be nil; SyncMemory then reports
// ErrMemorySyncDisabled.
func NewMemorySync(log *logger.Logger, embedder Embedder, vectors pinecone.VectorStore) MemorySyncer {
	return &memorySync{
		log:      log.With("service", "MemorySync"),
		embedder: embedder,
		vectors:  vectors,
	}
}

func (m *memorySync) SyncMemory(ctx context.Context, userID string, memory domain.BrandMemory) error {
	entries := memoryEntries(memory)
	if len(entries) == 0 {
		return nil
	}
	if m.embedder == nil || m.vectors == nil {
		return ErrMemorySyncDisabled
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.text
	}
	embeddings, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed memory: %w", err)
	}
	if len(embeddings) != len(entries) {
		return fmt.Errorf("embed memory: want %d vectors got %d", len(entries), len(embeddings))
	}

	vectors := make([]pinecone.Vector, len(entries))
	for i, e := range entries {
		vectors[i] = pinecone.Vector{
			ID:       memoryVectorID(userID, e),
			Values:   embeddings[i],
			Metadata: map[string]any{"kind": e.kind, "text": e.text},
		}
	}
	if err := m.vectors.Upsert(ctx, userID, vectors); err != nil {
		return fmt.Errorf("upsert memory: %w", err)
	}
	m.log.Info("Brand memory synced", "user_id", userID, "entries", len(vectors))
	return nil
}

func memoryEntries(memory domain.BrandMemory) []memoryEntry {
	var out []memoryEntry
	add := func(kind string, values []string) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, memoryEntry{kind: kind, text: v})
			}
		}
	}
	add(memoryKindWinning, memory.WinningPromptDNA)
	add(memoryKindFlop, memory.FlopConstraints)
	add(memoryKindInsight, memory.IndustryInsights)
	return out
}

// memoryVectorID is stable per (user, kind, text) so re-syncing overwrites.
func memoryVectorID(userID string, e memoryEntry) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(userID+"|"+e.kind+"|"+e.text)).String()
}
