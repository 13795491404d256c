package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
)

// Template is an authored NPC encounter loaded from YAML
type Template struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	NPC         string               `yaml:"npc"`
	Interest    *int                 `yaml:"interest"`
	Patience    *int                 `yaml:"patience"`
	PatienceCap *int                 `yaml:"patience_cap"`
	Motivations []TemplateMotivation `yaml:"motivations"`
	Pitfalls    []TemplatePitfall    `yaml:"pitfalls"`
}

// TemplateMotivation is one motivation entry of a template
type TemplateMotivation struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Known       bool   `yaml:"known"`
}

// TemplatePitfall is one pitfall entry of a template. A bare string is
// accepted as a concealed pitfall.
type TemplatePitfall struct {
	Description string `yaml:"description"`
	Known       bool   `yaml:"known"`
}

// UnmarshalYAML accepts either a mapping or a plain string
func (p *TemplatePitfall) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Description = node.Value
		return nil
	}
	type plain TemplatePitfall
	return node.Decode((*plain)(p))
}

// LoadTemplate decodes a single template document, rejecting unknown keys
func LoadTemplate(r io.Reader) (*Template, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Template
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("template is empty")
		}
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &t, nil
}

// NegotiationCreate converts the template into a creation request. Missing
// counters are left for the configured defaults.
func (t *Template) NegotiationCreate() domain.NegotiationCreate {
	in := domain.NegotiationCreate{
		Name:        t.Name,
		Description: t.Description,
		NPCName:     t.NPC,
		Interest:    t.Interest,
		Patience:    t.Patience,
		PatienceCap: t.PatienceCap,
	}
	for _, m := range t.Motivations {
		in.Motivations = append(in.Motivations, domain.MotivationInput{
			Type:        m.Type,
			Description: m.Description,
			Known:       m.Known,
		})
	}
	for _, p := range t.Pitfalls {
		in.Pitfalls = append(in.Pitfalls, domain.PitfallInput{
			Description: p.Description,
			Known:       p.Known,
		})
	}
	return in
}

// TemplateFromSession renders a session back into an authoring template,
// keeping the current reveal state
func TemplateFromSession(s *negotiation.Session) *Template {
	interest, patience, patienceCap := s.Opening.Interest, s.Opening.Patience, s.Opening.PatienceCap
	t := &Template{
		Name:        s.Name,
		Description: s.Description,
		NPC:         s.NPCName,
		Interest:    &interest,
		Patience:    &patience,
		PatienceCap: &patienceCap,
	}
	for _, m := range s.Traits.Motivations {
		t.Motivations = append(t.Motivations, TemplateMotivation{
			Type:        string(m.Type),
			Description: m.Description,
			Known:       m.IsKnown,
		})
	}
	for _, p := range s.Traits.Pitfalls {
		t.Pitfalls = append(t.Pitfalls, TemplatePitfall{Description: p.Description, Known: p.IsKnown})
	}
	return t
}

// ExportSnapshot encodes a session as indented JSON
func ExportSnapshot(s *negotiation.Session) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// ImportSnapshot decodes a JSON snapshot and checks every session invariant
func ImportSnapshot(data []byte) (*negotiation.Session, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s negotiation.Session
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.ID == "" {
		return nil, errors.New("snapshot has no id")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot rejected: %w", err)
	}
	return &s, nil
}
