package domain

type ContentType string

const (
	ContentTypeImage ContentType = "Image"
	ContentTypeVideo ContentType = "Video"
)

type ContentPillar string

const (
	PillarEducation       ContentPillar = "Education"
	PillarEntertainment   ContentPillar = "Entertainment"
	PillarInspiration     ContentPillar = "Inspiration"
	PillarPromotion       ContentPillar = "Promotion"
	PillarBehindTheScenes ContentPillar = "Behind the Scenes"
)

var Pillars = []ContentPillar{PillarEducation, PillarEntertainment, PillarInspiration, PillarPromotion, PillarBehindTheScenes}

func (p ContentPillar) Valid() bool {
	for _, k := range Pillars {
		if p == k {
			return true
		}
	}
	return false
}

type Performance string

const (
	PerformanceWin  Performance = "win"
	PerformanceFlop Performance = "flop"
)

type PlatformVariant struct {
	Platform Platform `json:"platform"`
	Caption  string   `json:"caption"`
	Hook     string   `json:"hook"`
}

type AudioLevels struct {
	Master float64 `json:"master"`
	Vox    float64 `json:"vox"`
	BGM    float64 `json:"bgm"`
}

type Metrics struct {
	Reach      int64  `json:"reach"`
	Engagement int64  `json:"engagement"`
	ROI        string `json:"roi"`
}

// ContentPlanItem is one planned unit. Day is the item's identity within a plan.
type ContentPlanItem struct {
	Day             int               `json:"day"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ContentType     ContentType       `json:"contentType"`
	ContentPillar   ContentPillar     `json:"contentPillar"`
	VisualHook      string            `json:"visualHook"`
	Script          string            `json:"script,omitempty"`
	Prompt          string            `json:"prompt"`
	Caption         string            `json:"caption"`
	Hashtags        []string          `json:"hashtags"`
	Platform        Platform          `json:"platform"`
	Status          Status            `json:"status"`
	AssetURL        string            `json:"assetUrl,omitempty"`
	AudioURL        string            `json:"audioUrl,omitempty"`
	Performance     Performance       `json:"performance,omitempty"`
	Reasoning       string            `json:"reasoning,omitempty"`
	ClientFeedback  string            `json:"clientFeedback,omitempty"`
	GeoTarget       string            `json:"geoTarget,omitempty"`
	TrendContext    *Trend            `json:"trendContext,omitempty"`
	ScheduledAt     *int64            `json:"scheduledAt,omitempty"`
	ProxyNode       string            `json:"proxyNode,omitempty"`
	PredictionScore *float64          `json:"predictionScore,omitempty"`
	AltText         string            `json:"altText,omitempty"`
	Variants        []PlatformVariant `json:"variants,omitempty"`
	AudioLevels     *AudioLevels      `json:"audioLevels,omitempty"`
	Metrics         *Metrics          `json:"metrics,omitempty"`
}

func (it ContentPlanItem) Clone() ContentPlanItem {
	out := it
	out.Hashtags = cloneStrings(it.Hashtags)
	if it.TrendContext != nil {
		tc := it.TrendContext.Clone()
		out.TrendContext = &tc
	}
	if it.ScheduledAt != nil {
		v := *it.ScheduledAt
		out.ScheduledAt = &v
	}
	if it.PredictionScore != nil {
		v := *it.PredictionScore
		out.PredictionScore = &v
	}
	if it.Variants != nil {
		out.Variants = append([]PlatformVariant(nil), it.Variants...)
	}
	if it.AudioLevels != nil {
		v := *it.AudioLevels
		out.AudioLevels = &v
	}
	if it.Metrics != nil {
		v := *it.Metrics
		out.Metrics = &v
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
