package gemini

import (
	"testing"

	"google.golang.org/genai"
)

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n[{\"a\":1}]\n```": `[{"a":1}]`,
		"```\n{}\n```":              `{}`,
		`  {"a":2} `:                `{"a":2}`,
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Fatalf("stripFences(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestResponseTextSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking about it", Thought: true},
				{Text: `{"ok":`},
				{Text: `true}`},
			}},
		}},
	}
	if got := responseText(resp); got != `{"ok":true}` {
		t.Fatalf("responseText: want=%q got=%q", `{"ok":true}`, got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Fatalf("responseText(empty): want empty got %q", got)
	}
}

func TestGroundingSourcesDedupes(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://a", Title: "A"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://a", Title: "A again"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://b", Title: "B"}},
					{},
				},
			},
		}},
	}
	got := groundingSources(resp)
	if len(got) != 2 || got[0].URI != "https://a" || got[1].Title != "B" {
		t.Fatalf("groundingSources: unexpected %+v", got)
	}
}
