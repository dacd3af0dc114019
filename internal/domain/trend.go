package domain

type TrendPlatform string

const (
	TrendTikTok    TrendPlatform = "TikTok"
	TrendInstagram TrendPlatform = "Instagram"
	TrendYouTube   TrendPlatform = "YouTube"
	TrendGeneral   TrendPlatform = "General"
)

type Trend struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	RelevanceScore    float64           `json:"relevanceScore"`
	SourceURL         string            `json:"sourceUrl"`
	Platform          TrendPlatform     `json:"platform"`
	TrendingAudio     string            `json:"trendingAudio,omitempty"`
	SuggestedTemplate string            `json:"suggestedTemplate,omitempty"`
	GroundingSources  []GroundingSource `json:"groundingSources,omitempty"`
}

func (t Trend) Clone() Trend {
	out := t
	if t.GroundingSources != nil {
		out.GroundingSources = append([]GroundingSource(nil), t.GroundingSources...)
	}
	return out
}
