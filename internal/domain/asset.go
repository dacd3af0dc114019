package domain

import (
	"errors"
	"strings"
)

type AssetType string

const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
	AssetAudio AssetType = "audio"
)

type AssetSource string

const (
	SourceUpload AssetSource = "upload"
	SourceAI     AssetSource = "ai"
	SourceMobile AssetSource = "mobile"
)

// Asset is immutable once appended to a GenerationState.
type Asset struct {
	ID        string      `json:"id"`
	URL       string      `json:"url"`
	Type      AssetType   `json:"type"`
	Tags      []string    `json:"tags"`
	Source    AssetSource `json:"source"`
	CreatedAt int64       `json:"createdAt"`
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("asset id is required")
	}
	if strings.TrimSpace(a.URL) == "" {
		return errors.New("asset url is required")
	}
	switch a.Type {
	case AssetImage, AssetVideo, AssetAudio:
	default:
		return errors.New("unknown asset type: " + string(a.Type))
	}
	switch a.Source {
	case SourceUpload, SourceAI, SourceMobile:
	default:
		return errors.New("unknown asset source: " + string(a.Source))
	}
	return nil
}

func (a Asset) Clone() Asset {
	out := a
	out.Tags = cloneStrings(a.Tags)
	return out
}

// AssetTypeForContentType maps a MIME type onto the asset taxonomy.
func AssetTypeForContentType(ct string) (AssetType, bool) {
	ct = strings.ToLower(strings.TrimSpace(ct))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return AssetImage, true
	case strings.HasPrefix(ct, "video/"):
		return AssetVideo, true
	case strings.HasPrefix(ct, "audio/"):
		return AssetAudio, true
	}
	return "", false
}
