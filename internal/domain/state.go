package domain

// GenerationState is the aggregate snapshot of one workspace.
type GenerationState struct {
	IsAnalyzing        bool              `json:"isAnalyzing"`
	IsGeneratingAssets bool              `json:"isGeneratingAssets"`
	Progress           int               `json:"progress"`
	Plan               []ContentPlanItem `json:"plan"`
	Assets             []Asset           `json:"assets"`
	Trends             []Trend           `json:"trends"`
	Strategy           *BrandStrategy    `json:"strategy,omitempty"`
	Error              string            `json:"error,omitempty"`
}

func NewGenerationState() GenerationState {
	return GenerationState{
		Plan:   []ContentPlanItem{},
		Assets: []Asset{},
		Trends: []Trend{},
	}
}

func (s GenerationState) Clone() GenerationState {
	out := s
	out.Plan = make([]ContentPlanItem, len(s.Plan))
	for i, it := range s.Plan {
		out.Plan[i] = it.Clone()
	}
	out.Assets = make([]Asset, len(s.Assets))
	for i, a := range s.Assets {
		out.Assets[i] = a.Clone()
	}
	out.Trends = make([]Trend, len(s.Trends))
	for i, t := range s.Trends {
		out.Trends[i] = t.Clone()
	}
	if s.Strategy != nil {
		st := s.Strategy.Clone()
		out.Strategy = &st
	}
	return out
}

func (s BrandStrategy) Clone() BrandStrategy {
	out := s
	if s.Competitors != nil {
		out.Competitors = append([]Competitor(nil), s.Competitors...)
	}
	out.SuggestedThemes = cloneStrings(s.SuggestedThemes)
	if s.GroundingSources != nil {
		out.GroundingSources = append([]GroundingSource(nil), s.GroundingSources...)
	}
	return out
}

func (b BrandInfo) Clone() BrandInfo {
	out := b
	out.Platforms = append([]Platform(nil), b.Platforms...)
	if b.Persona != nil {
		p := *b.Persona
		out.Persona = &p
	}
	if b.Guardrails != nil {
		g := BrandGuardrails{
			NegativeKeywords: cloneStrings(b.Guardrails.NegativeKeywords),
			ToneConstraints:  cloneStrings(b.Guardrails.ToneConstraints),
			LegalDisclaimers: cloneStrings(b.Guardrails.LegalDisclaimers),
		}
		out.Guardrails = &g
	}
	if b.Memory != nil {
		m := BrandMemory{
			WinningPromptDNA: cloneStrings(b.Memory.WinningPromptDNA),
			FlopConstraints:  cloneStrings(b.Memory.FlopConstraints),
			IndustryInsights: cloneStrings(b.Memory.IndustryInsights),
		}
		out.Memory = &m
	}
	out.BrandColors = cloneStrings(b.BrandColors)
	return out
}
