package roadmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tbourn/go-roadmap-backend/internal/llm"
)

const systemPrompt = "You are a helpful AI assistant that generates learning roadmaps. " +
	"Create structured learning paths from beginner to advanced. " +
	"Always provide at least 4 modules per chapter. " +
	"Include Wikipedia links when possible. " +
	"You must return ONLY valid JSON, no additional text or explanations. " +
	"IMPORTANT: Use the exact query term provided by the user - do not substitute or interpret it differently."

const userPromptFormat = `Generate a learning roadmap for "%[1]s" in this exact JSON format. Return ONLY the JSON, no other text. Use "%[1]s" exactly as provided - do not change or interpret the query term:

%[2]s

Generate 3-5 chapters with 4-6 modules each. Return ONLY the JSON object. Use "%[1]s" exactly as provided.`

type skeletonModule struct {
	ModuleName        string `json:"moduleName"`
	ModuleDescription string `json:"moduleDescription"`
	Link              string `json:"link"`
}

// Field order here is the order the model sees.
type skeletonChapters struct {
	Fundamentals []skeletonModule `json:"Fundamentals"`
	Intermediate []skeletonModule `json:"Intermediate"`
}

type skeleton struct {
	Query    string           `json:"query"`
	Chapters skeletonChapters `json:"chapters"`
}

// BuildPrompt returns the system and user messages for generating a roadmap
// about query. The query is embedded verbatim; inside the example document it
// is JSON-escaped so quotes in the query cannot break the skeleton.
func BuildPrompt(query string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(userPromptFormat, query, exampleDocument(query))},
	}
}

func exampleDocument(query string) string {
	slug := WikiSlug(query)
	doc := skeleton{
		Query: query,
		Chapters: skeletonChapters{
			Fundamentals: []skeletonModule{{
				ModuleName:        "Introduction to " + query,
				ModuleDescription: "Basic concepts and overview",
				Link:              "https://en.wikipedia.org/wiki/" + slug,
			}},
			Intermediate: []skeletonModule{{
				ModuleName:        "Advanced " + query + " Concepts",
				ModuleDescription: "Deeper understanding and practical applications",
				Link:              "https://en.wikipedia.org/wiki/" + slug + "_programming",
			}},
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc) // plain strings only; cannot fail
	return strings.TrimRight(buf.String(), "\n")
}
