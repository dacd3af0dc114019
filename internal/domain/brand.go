package domain

import (
	"errors"
	"strings"
)

type Platform string

const (
	PlatformLinkedIn       Platform = "LinkedIn"
	PlatformFacebook       Platform = "Facebook"
	PlatformInstagram      Platform = "Instagram"
	PlatformTwitter        Platform = "X (Twitter)"
	PlatformYoutubeShorts  Platform = "YouTube Shorts"
	PlatformTikTok         Platform = "TikTok"
	PlatformReels          Platform = "Instagram Reels"
	PlatformGoogleBusiness Platform = "Google Business Profile"
)

var knownPlatforms = map[Platform]bool{
	PlatformLinkedIn:       true,
	PlatformFacebook:       true,
	PlatformInstagram:      true,
	PlatformTwitter:        true,
	PlatformYoutubeShorts:  true,
	PlatformTikTok:         true,
	PlatformReels:          true,
	PlatformGoogleBusiness: true,
}

func (p Platform) Valid() bool { return knownPlatforms[p] }

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type GroundingSource struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// BrandPersona is the synthetic spokesperson generated once per brand.
type BrandPersona struct {
	Name              string `json:"name"`
	AgeRange          string `json:"ageRange"`
	Ethnicity         string `json:"ethnicity"`
	Style             string `json:"style"`
	Backstory         string `json:"backstory"`
	AvatarURL         string `json:"avatarUrl,omitempty"`
	VisualDescription string `json:"visualDescription"`
}

type BrandGuardrails struct {
	NegativeKeywords []string `json:"negativeKeywords"`
	ToneConstraints  []string `json:"toneConstraints"`
	LegalDisclaimers []string `json:"legalDisclaimers"`
}

// BrandMemory holds accumulated learnings from previous cycles.
type BrandMemory struct {
	WinningPromptDNA []string `json:"winningPromptDNA"`
	FlopConstraints  []string `json:"flopConstraints"`
	IndustryInsights []string `json:"industryInsights"`
}

func (m *BrandMemory) Empty() bool {
	if m == nil {
		return true
	}
	return len(m.WinningPromptDNA) == 0 && len(m.FlopConstraints) == 0 && len(m.IndustryInsights) == 0
}

type BrandInfo struct {
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Industry       string           `json:"industry"`
	Tone           string           `json:"tone"`
	TargetAudience string           `json:"targetAudience"`
	Platforms      []Platform       `json:"platforms"`
	Persona        *BrandPersona    `json:"persona,omitempty"`
	Guardrails     *BrandGuardrails `json:"guardrails,omitempty"`
	Memory         *BrandMemory     `json:"memory,omitempty"`
	RiskLevel      RiskLevel        `json:"riskLevel,omitempty"`
	BrandColors    []string         `json:"brandColors,omitempty"`
	LogoURL        string           `json:"logoUrl,omitempty"`
	WatermarkURL   string           `json:"watermarkUrl,omitempty"`
}

func (b BrandInfo) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("brand name is required")
	}
	if strings.TrimSpace(b.Industry) == "" {
		return errors.New("brand industry is required")
	}
	for _, p := range b.Platforms {
		if !p.Valid() {
			return errors.New("unknown platform: " + string(p))
		}
	}
	switch b.RiskLevel {
	case "", RiskLow, RiskMedium, RiskHigh:
	default:
		return errors.New("unknown risk level: " + string(b.RiskLevel))
	}
	return nil
}

type Competitor struct {
	Name       string `json:"name"`
	Strategy   string `json:"strategy"`
	VisualHook string `json:"visualHook"`
	MarketGap  string `json:"marketGap"`
	URL        string `json:"url"`
}

// BrandStrategy is the competitor research result, replaced wholesale per cycle.
type BrandStrategy struct {
	Competitors      []Competitor      `json:"competitors"`
	SuggestedThemes  []string          `json:"suggestedThemes"`
	VisualDirection  string            `json:"visualDirection"`
	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}
