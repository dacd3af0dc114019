package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

const (
	DefaultDraftURL   = "https://contentpilot-factory--generate-draft.modal.run"
	DefaultProdURL    = "https://contentpilot-factory--generate-production.modal.run"
	DefaultInpaintURL = "https://contentpilot-factory--run-video-inpainting.modal.run"

	opGenerate = "generate"
	opInpaint  = "inpaint"
)

type Config struct {
	DraftURL   string
	ProdURL    string
	InpaintURL string
	AuthToken  string
	Timeout    time.Duration
}

// Client talks to the GPU video factory. Every call is a single authenticated
// JSON POST with no retries.
type Client struct {
	log        *logger.Logger
	draftURL   string
	prodURL    string
	inpaintURL string
	authToken  string
	timeout    time.Duration
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		log:        log.With("client", "VideoFactory"),
		draftURL:   orDefault(cfg.DraftURL, DefaultDraftURL),
		prodURL:    orDefault(cfg.ProdURL, DefaultProdURL),
		inpaintURL: orDefault(cfg.InpaintURL, DefaultInpaintURL),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		timeout:    timeout,
		httpClient: &http.Client{Transport: tr},
	}
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(log *logger.Logger, cfg Config, httpClient *http.Client) *Client {
	c := New(log, cfg)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// TargetURL returns the generation endpoint for a quality tier.
func (c *Client) TargetURL(q Quality) string {
	if q.Tier() == QualityProduction {
		return c.prodURL
	}
	return c.draftURL
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return GenerateResult{}, err
	}
	tier := req.Quality.Tier()
	var resp upstreamResponse
	payload := generatePayload{Prompt: req.Prompt, AspectRatio: req.AspectRatio}
	if err := c.postJSON(ctx, opGenerate, c.TargetURL(tier), payload, &resp); err != nil {
		return GenerateResult{}, err
	}
	quality := resp.Quality
	if quality == "" {
		quality = tier
	}
	c.log.Debug("video generated", "quality", quality, "engine", resp.Engine)
	return GenerateResult{
		URL:     resp.URL,
		Engine:  resp.Engine,
		Quality: quality,
		Status:  StatusCompleted,
	}, nil
}

func (c *Client) Inpaint(ctx context.Context, req InpaintRequest) (InpaintResult, error) {
	if err := req.Validate(); err != nil {
		return InpaintResult{}, err
	}
	var resp upstreamResponse
	payload := inpaintPayload{
		VideoURL:        req.VideoURL,
		MaskCoordinates: req.MaskCoordinates,
		Prompt:          req.Prompt,
	}
	if err := c.postJSON(ctx, opInpaint, c.inpaintURL, payload, &resp); err != nil {
		return InpaintResult{}, err
	}
	c.log.Debug("video inpainted", "engine", resp.Engine)
	return InpaintResult{URL: resp.URL, Engine: resp.Engine, Status: StatusSuccess}, nil
}

func (c *Client) postJSON(ctx context.Context, op, url string, body any, out *upstreamResponse) error {
	if c.authToken == "" {
		return ErrMissingToken
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("factory %s: encode request: %w", op, err)
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx2, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("factory %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnreachableError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &UpstreamError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, op, err)
	}
	if strings.TrimSpace(out.URL) == "" {
		return fmt.Errorf("%w: %s: missing url", ErrMalformedResponse, op)
	}
	return nil
}

// IsUnreachable reports whether err came from the transport rather than the factory.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

func orDefault(v, def string) string {
	v = strings.TrimRight(strings.TrimSpace(v), "/")
	if v == "" {
		return def
	}
	return v
}
