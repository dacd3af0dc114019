package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
	"github.com/contentpilot/contentpilot-backend/internal/platform/gemini"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

const defaultPlanDays = 7

// ContentService is the AI side of onboarding: plan, trends, research and persona.
type ContentService interface {
	PlanGenerator
	TrendScanner
	CompetitorResearcher
	PersonaGenerator
}

type contentService struct {
	log      *logger.Logger
	ai       gemini.Client
	planDays int
}

func NewContentService(log *logger.Logger, ai gemini.Client, planDays int) ContentService {
	if planDays <= 0 {
		planDays = defaultPlanDays
	}
	return &contentService{
		log:      log.With("service", "ContentService"),
		ai:       ai,
		planDays: planDays,
	}
}

const strategistSystem = "You are a senior social media strategist. Answer with JSON only."

func (s *contentService) GeneratePlan(ctx context.Context, brand domain.BrandInfo) ([]domain.ContentPlanItem, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day social media content plan, one item per day numbered from 1.\n", s.planDays)
	b.WriteString("Balance the content pillars (Education, Entertainment, Inspiration, Promotion, Behind the Scenes). ")
	b.WriteString("For every item write a production-ready image or video generation prompt, a caption, hashtags and a one-line reasoning.\n\n")
	b.WriteString(brandContext(brand))

	var items []domain.ContentPlanItem
	if _, err := s.ai.GenerateJSON(ctx, gemini.Request{
		System: strategistSystem,
		Prompt: b.String(),
		Schema: planSchema,
	}, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("generate plan: model returned no items")
	}
	return normalizePlan(items, brand.Platforms), nil
}

func (s *contentService) ScanTrends(ctx context.Context, industry string) ([]domain.Trend, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return nil, fmt.Errorf("scan trends: industry required")
	}
	prompt := "Search the web for the current social media trends in the " + industry + " industry. " +
		"Return a JSON array of 5 objects with keys: title, description, relevanceScore (0-100), sourceUrl, " +
		"platform (TikTok, Instagram, YouTube or General), trendingAudio, suggestedTemplate."

	var trends []domain.Trend
	sources, err := s.ai.GenerateJSON(ctx, gemini.Request{Prompt: prompt, Search: true}, &trends)
	if err != nil {
		return nil, err
	}
	grounding := toGroundingSources(sources)
	for i := range trends {
		t := &trends[i]
		if strings.TrimSpace(t.ID) == "" {
			t.ID = uuid.NewString()
		}
		switch t.Platform {
		case domain.TrendTikTok, domain.TrendInstagram, domain.TrendYouTube, domain.TrendGeneral:
		default:
			t.Platform = domain.TrendGeneral
		}
		t.RelevanceScore = clamp(t.RelevanceScore, 0, 100)
		if len(t.GroundingSources) == 0 && len(grounding) > 0 {
			t.GroundingSources = append([]domain.GroundingSource(nil), grounding...)
		}
	}
	sort.SliceStable(trends, func(i, j int) bool { return trends[i].RelevanceScore > trends[j].RelevanceScore })
	return trends, nil
}

func (s *contentService) ResearchCompetitors(ctx context.Context, brand domain.BrandInfo) (domain.BrandStrategy, error) {
	prompt := "Research the 3 strongest competitors of this brand using web search. " +
		"Return a JSON object with keys: competitors (array of {name, strategy, visualHook, marketGap, url}), " +
		"suggestedThemes (array of strings), visualDirection (string).\n\n" + brandContext(brand)

	var strategy domain.BrandStrategy
	sources, err := s.ai.GenerateJSON(ctx, gemini.Request{Prompt: prompt, Search: true}, &strategy)
	if err != nil {
		return domain.BrandStrategy{}, err
	}
	if g := toGroundingSources(sources); len(g) > 0 {
		strategy.GroundingSources = g
	}
	return strategy, nil
}

func (s *contentService) GeneratePersona(ctx context.Context, brand domain.BrandInfo) (domain.BrandPersona, error) {
	prompt := "Design a synthetic brand ambassador who will appear in this brand's videos. " +
		"Give a name, age range, ethnicity, clothing style, a short backstory and a detailed visual description " +
		"usable as a consistent image-generation reference.\n\n" + brandContext(brand)

	var persona domain.BrandPersona
	if _, err := s.ai.GenerateJSON(ctx, gemini.Request{
		System: strategistSystem,
		Prompt: prompt,
		Schema: personaSchema,
	}, &persona); err != nil {
		return domain.BrandPersona{}, err
	}
	if strings.TrimSpace(persona.Name) == "" {
		return domain.BrandPersona{}, fmt.Errorf("generate persona: model returned no name")
	}
	return persona, nil
}

// normalizePlan guarantees unique days. Plans with missing or repeated days
// are renumbered 1..N in the order the model produced them.
func normalizePlan(items []domain.ContentPlanItem, platforms []domain.Platform) []domain.ContentPlanItem {
	seen := make(map[int]bool, len(items))
	renumber := false
	for _, it := range items {
		if it.Day <= 0 || seen[it.Day] {
			renumber = true
			break
		}
		seen[it.Day] = true
	}
	for i := range items {
		it := &items[i]
		if renumber {
			it.Day = i + 1
		}
		if it.ContentType != domain.ContentTypeVideo {
			it.ContentType = domain.ContentTypeImage
		}
		if !it.ContentPillar.Valid() {
			it.ContentPillar = domain.PillarEducation
		}
		if it.Platform == "" && len(platforms) > 0 {
			it.Platform = platforms[i%len(platforms)]
		}
		it.Status = ""
	}
	if !renumber {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Day < items[j].Day })
	}
	return items
}

func brandContext(brand domain.BrandInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand: %s\nIndustry: %s\n", brand.Name, brand.Industry)
	writeLine(&b, "Description", brand.Description)
	writeLine(&b, "Tone", brand.Tone)
	writeLine(&b, "Target audience", brand.TargetAudience)
	if len(brand.Platforms) > 0 {
		names := make([]string, len(brand.Platforms))
		for i, p := range brand.Platforms {
			names[i] = string(p)
		}
		writeLine(&b, "Platforms", strings.Join(names, ", "))
	}
	writeLine(&b, "Risk appetite", string(brand.RiskLevel))
	if p := brand.Persona; p != nil {
		writeLine(&b, "Ambassador", p.Name+": "+p.VisualDescription)
	}
	if g := brand.Guardrails; g != nil {
		writeList(&b, "Never use these words", g.NegativeKeywords)
		writeList(&b, "Tone constraints", g.ToneConstraints)
		writeList(&b, "Required legal disclaimers", g.LegalDisclaimers)
	}
	if m := brand.Memory; !m.Empty() {
		writeList(&b, "Patterns that performed well", m.WinningPromptDNA)
		writeList(&b, "Patterns that flopped; avoid", m.FlopConstraints)
		writeList(&b, "Industry insights", m.IndustryInsights)
	}
	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	writeLine(b, label, strings.Join(values, "; "))
}

func toGroundingSources(in []gemini.Source) []domain.GroundingSource {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.GroundingSource, len(in))
	for i, s := range in {
		out[i] = domain.GroundingSource{Title: s.Title, URI: s.URI}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func pillarNames() []string {
	out := make([]string, len(domain.Pillars))
	for i, p := range domain.Pillars {
		out[i] = string(p)
	}
	return out
}

var (
	stringSchema = &genai.Schema{Type: genai.TypeString}

	planSchema = &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"day":             {Type: genai.TypeInteger},
				"title":           stringSchema,
				"description":     stringSchema,
				"contentType":     {Type: genai.TypeString, Enum: []string{string(domain.ContentTypeImage), string(domain.ContentTypeVideo)}},
				"contentPillar":   {Type: genai.TypeString, Enum: pillarNames()},
				"visualHook":      stringSchema,
				"script":          stringSchema,
				"prompt":          stringSchema,
				"caption":         stringSchema,
				"hashtags":        {Type: genai.TypeArray, Items: stringSchema},
				"platform":        stringSchema,
				"reasoning":       stringSchema,
				"altText":         stringSchema,
				"predictionScore": {Type: genai.TypeNumber},
			},
			Required: []string{"day", "title", "description", "contentType", "contentPillar", "visualHook", "prompt", "caption", "hashtags", "platform"},
		},
	}

	personaSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":              stringSchema,
			"ageRange":          stringSchema,
			"ethnicity":         stringSchema,
			"style":             stringSchema,
			"backstory":         stringSchema,
			"visualDescription": stringSchema,
		},
		Required: []string{"name", "ageRange", "ethnicity", "style", "backstory", "visualDescription"},
	}
)
