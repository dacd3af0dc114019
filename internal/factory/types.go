package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type Quality string

const (
	QualityDraft      Quality = "draft"
	QualityProduction Quality = "production"
)

func (q Quality) Valid() bool {
	switch q {
	case "", QualityDraft, QualityProduction:
		return true
	}
	return false
}

// Tier normalizes an absent quality to draft.
func (q Quality) Tier() Quality {
	if q == QualityProduction {
		return QualityProduction
	}
	return QualityDraft
}

type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	Quality     Quality `json:"quality"`
	AspectRatio string  `json:"aspectRatio"`
}

func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt is required")
	}
	if !r.Quality.Valid() {
		return errors.New("quality must be draft or production")
	}
	return nil
}

type GenerateResult struct {
	URL     string  `json:"url"`
	Engine  string  `json:"engine"`
	Quality Quality `json:"quality"`
	Status  string  `json:"status"`
}

type InpaintRequest struct {
	VideoURL        string          `json:"videoUrl"`
	MaskCoordinates json.RawMessage `json:"maskCoordinates"`
	Prompt          string          `json:"prompt"`
}

func (r InpaintRequest) Validate() error {
	if strings.TrimSpace(r.VideoURL) == "" {
		return errors.New("videoUrl is required")
	}
	mask := bytes.TrimSpace(r.MaskCoordinates)
	if len(mask) == 0 || bytes.Equal(mask, []byte("null")) {
		return errors.New("maskCoordinates is required")
	}
	if (mask[0] != '[' && mask[0] != '{') || !json.Valid(mask) {
		return errors.New("maskCoordinates must be a JSON array or object")
	}
	if bytes.Equal(mask, []byte("[]")) || bytes.Equal(mask, []byte("{}")) {
		return errors.New("maskCoordinates must not be empty")
	}
	return nil
}

type InpaintResult struct {
	URL    string `json:"url"`
	Engine string `json:"engine"`
	Status string `json:"status"`
}

const (
	StatusCompleted = "completed"
	StatusSuccess   = "success"
)

type generatePayload struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

type inpaintPayload struct {
	VideoURL        string          `json:"video_url"`
	MaskCoordinates json.RawMessage `json:"mask_coordinates"`
	Prompt          string          `json:"prompt"`
}

type upstreamResponse struct {
	URL     string  `json:"url"`
	Engine  string  `json:"engine"`
	Quality Quality `json:"quality"`
}
