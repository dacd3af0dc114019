package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contentpilot/contentpilot-backend/internal/data/db"
	"github.com/contentpilot/contentpilot-backend/internal/factory"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/gcp"
	"github.com/contentpilot/contentpilot-backend/internal/platform/gemini"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/platform/pinecone"
	"github.com/contentpilot/contentpilot-backend/internal/platform/redis"
)

// Clients holds the outbound integrations. Optional ones are nil when
// unconfigured.
type Clients struct {
	DB      *db.Service
	Factory *factory.Client
	Gemini  gemini.Client
	Vectors pinecone.VectorStore
	Events  redis.EventBus
	Bucket  gcp.AssetBucket
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	var out Clients

	database, err := db.Open(log, db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(database.DB()); err != nil {
		_ = database.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}
	out.DB = database

	out.Factory = NewFactoryClient(log, cfg.Factory)
	if cfg.Factory.AuthToken == "" {
		log.Warn("MODAL_AUTH_TOKEN not set; video proxy calls will fail until it is configured")
	}

	// Gemini
	if strings.TrimSpace(cfg.Gemini.APIKey) != "" {
		ai, err := gemini.New(ctx, log, gemini.Config{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			EmbedModel: cfg.Gemini.EmbedModel,
			Timeout:    cfg.Gemini.Timeout,
		})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init gemini client: %w", err)
		}
		out.Gemini = ai
	} else {
		log.Warn("GEMINI_API_KEY not set; onboarding and trend refresh are disabled")
	}

	// Pinecone
	if strings.TrimSpace(cfg.Pinecone.APIKey) != "" {
		pc, err := pinecone.New(log, pinecone.Config{APIKey: cfg.Pinecone.APIKey})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init pinecone client: %w", err)
		}
		vs, err := pinecone.NewVectorStore(ctx, log, pc, pinecone.StoreConfig{
			IndexName:       cfg.Pinecone.IndexName,
			IndexHost:       cfg.Pinecone.IndexHost,
			NamespacePrefix: cfg.Pinecone.NamespacePrefix,
		})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init pinecone vector store: %w", err)
		}
		out.Vectors = instrumentVectorStore("pinecone", vs, metrics)
	} else {
		log.Warn("PINECONE_API_KEY not set; brand memory sync is disabled")
	}

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		bus, err := redis.NewEventBus(ctx, log, redis.Config{Addr: cfg.Redis.Addr, Channel: cfg.Redis.Channel})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		out.Events = bus
	} else {
		log.Warn("REDIS_ADDR not set; workspace events are not published")
	}

	// Gcs
	if strings.TrimSpace(cfg.Storage.Bucket) != "" {
		bucket, err := gcp.NewAssetBucket(ctx, log, gcp.BucketConfig{
			Name:         cfg.Storage.Bucket,
			CDNDomain:    cfg.Storage.CDNDomain,
			EmulatorHost: cfg.Storage.EmulatorHost,
			Credentials:  cfg.Storage.Credentials,
		})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init asset bucket: %w", err)
		}
		out.Bucket = bucket
	} else {
		log.Warn("GCS_ASSET_BUCKET not set; asset uploads are disabled")
	}

	return out, nil
}

// NewFactoryClient builds the GPU factory client from config. The CLI uses it
// without the rest of the app.
func NewFactoryClient(log *logger.Logger, cfg FactoryConfig) *factory.Client {
	return factory.New(log, factory.Config{
		DraftURL:   cfg.DraftURL,
		ProdURL:    cfg.ProdURL,
		InpaintURL: cfg.InpaintURL,
		AuthToken:  cfg.AuthToken,
		Timeout:    cfg.Timeout,
	})
}

// Close releases every open integration and reports all failures.
func (c *Clients) Close() error {
	var errs []error
	if c.Bucket != nil {
		errs = append(errs, c.Bucket.Close())
		c.Bucket = nil
	}
	if c.Events != nil {
		errs = append(errs, c.Events.Close())
		c.Events = nil
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
		c.DB = nil
	}
	return errors.Join(errs...)
}
