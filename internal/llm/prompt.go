package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt frames the model as a tabletop negotiation assistant
const SystemPrompt = "You help a game master run social negotiations in a tabletop roleplaying game. " +
	"Respond with ONLY a JSON array of argument objects, no prose."

// BuildPrompt creates a prompt asking for argument suggestions
func BuildPrompt(req Request) string {
	var b strings.Builder

	count := req.Count
	if count <= 0 {
		count = 3
	}

	fmt.Fprintf(&b, "The party is negotiating with %s", req.NPCName)
	if req.SessionName != "" {
		fmt.Fprintf(&b, " (%s)", req.SessionName)
	}
	b.WriteString(".\n")
	if req.Description != "" {
		fmt.Fprintf(&b, "Situation: %s\n", req.Description)
	}
	fmt.Fprintf(&b, "Interest: %d/5. Patience: %d/%d.\n\n", req.Interest, req.Patience, req.PatienceCap)

	b.WriteString("Known motivations:\n")
	if len(req.KnownMotivations) == 0 {
		b.WriteString("- none yet\n")
	}
	for _, m := range req.KnownMotivations {
		fmt.Fprintf(&b, "- %s", m.Type)
		if m.Description != "" {
			fmt.Fprintf(&b, ": %s", m.Description)
		}
		if m.TimesUsed > 0 {
			fmt.Fprintf(&b, " (already appealed to %d times)", m.TimesUsed)
		}
		b.WriteString("\n")
	}

	b.WriteString("Known pitfalls (avoid these topics):\n")
	if len(req.KnownPitfalls) == 0 {
		b.WriteString("- none yet\n")
	}
	for _, p := range req.KnownPitfalls {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	if req.ConcealedMotivations > 0 || req.ConcealedPitfalls > 0 {
		fmt.Fprintf(&b, "The NPC still hides %d motivations and %d pitfalls.\n", req.ConcealedMotivations, req.ConcealedPitfalls)
	}

	if len(req.RecentArguments) > 0 {
		b.WriteString("\nArguments made so far, oldest first:\n")
		for _, a := range req.RecentArguments {
			fmt.Fprintf(&b, "- tier %d: %s", a.Tier, a.Description)
			if a.MotivationType != "" {
				fmt.Fprintf(&b, " [%s]", a.MotivationType)
			}
			fmt.Fprintf(&b, " (interest %+d, patience %+d)\n", a.InterestChange, a.PatienceChange)
		}
	}

	if req.Hint != "" {
		fmt.Fprintf(&b, "\nThe game master adds: %s\n", req.Hint)
	}

	fmt.Fprintf(&b, `
Propose %d arguments the party could make next.
Rules:
1. tier is 1 (weak), 2 (solid) or 3 (compelling)
2. motivation_type must be one of the known motivations above, or omitted
3. Never reference a known pitfall favourably
4. Keep each description to one or two sentences

Format:
[{"tier": 2, "description": "...", "motivation_type": "greed", "rationale": "..."}]
`, count)

	return b.String()
}

// ExtractSuggestions parses the JSON array of suggestions from model output,
// tolerating markdown code fences and surrounding prose
func ExtractSuggestions(content string) ([]Suggestion, error) {
	candidates := []string{}
	if block := extractFromCodeBlock(content, "```json"); block != "" {
		candidates = append(candidates, block)
	}
	if block := extractFromCodeBlock(content, "```"); block != "" {
		candidates = append(candidates, block)
	}
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		candidates = append(candidates, content[start:end+1])
	}

	var lastErr error
	for _, c := range candidates {
		var suggestions []Suggestion
		if err := json.Unmarshal([]byte(c), &suggestions); err != nil {
			lastErr = err
			continue
		}
		return suggestions, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", lastErr)
	}
	return nil, fmt.Errorf("no suggestions found in model output")
}

// Normalize keeps at most max suggestions with a description, clamps tiers
// into 1..3 and drops motivation references the party does not know
func Normalize(suggestions []Suggestion, knownMotivations []string, max int) []Suggestion {
	known := make(map[string]bool, len(knownMotivations))
	for _, m := range knownMotivations {
		known[m] = true
	}

	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		s.Description = strings.TrimSpace(s.Description)
		if s.Description == "" {
			continue
		}
		switch {
		case s.Tier < 1:
			s.Tier = 1
		case s.Tier > 3:
			s.Tier = 3
		}
		s.MotivationType = strings.ToLower(strings.TrimSpace(s.MotivationType))
		if !known[s.MotivationType] {
			s.MotivationType = ""
		}
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func extractFromCodeBlock(content, startMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	if nl := strings.IndexByte(content[contentStart:], '\n'); nl >= 0 && startMarker == "```" {
		contentStart += nl + 1
	}

	endIdx := strings.Index(content[contentStart:], "```")
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(content[contentStart : contentStart+endIdx])
}
