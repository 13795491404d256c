package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/negotiation"
)

const bridgeTroll = `name: Toll at the old bridge
description: The party needs to cross before nightfall
npc: Grub the troll
interest: 2
patience: 3
patience_cap: 5
motivations:
  - type: greed
    description: Wants more shiny things
    known: true
  - type: protection
pitfalls:
  - The flood that took his family
  - description: Goats
    known: true
`

func TestLoadTemplate(t *testing.T) {
	tmpl, err := LoadTemplate(strings.NewReader(bridgeTroll))
	require.NoError(t, err)

	assert.Equal(t, "Grub the troll", tmpl.NPC)
	require.NotNil(t, tmpl.Interest)
	assert.Equal(t, 2, *tmpl.Interest)
	require.Len(t, tmpl.Motivations, 2)
	assert.True(t, tmpl.Motivations[0].Known)
	assert.False(t, tmpl.Motivations[1].Known)
	require.Len(t, tmpl.Pitfalls, 2)
	assert.Equal(t, TemplatePitfall{Description: "The flood that took his family"}, tmpl.Pitfalls[0])
	assert.Equal(t, TemplatePitfall{Description: "Goats", Known: true}, tmpl.Pitfalls[1])

	in := tmpl.NegotiationCreate()
	assert.Equal(t, "Toll at the old bridge", in.Name)
	assert.Equal(t, "Grub the troll", in.NPCName)
	require.Len(t, in.Motivations, 2)
	assert.Equal(t, "greed", in.Motivations[0].Type)
	require.Len(t, in.Pitfalls, 2)
	assert.True(t, in.Pitfalls[1].Known)
}

func TestLoadTemplateRejectsUnknownKeys(t *testing.T) {
	_, err := LoadTemplate(strings.NewReader("name: x\nnpc: y\nmood: grumpy\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mood")
}

func TestLoadTemplateEmpty(t *testing.T) {
	_, err := LoadTemplate(strings.NewReader(""))
	assert.EqualError(t, err, "template is empty")
}

func TestLoadTemplateLeavesCountersUnset(t *testing.T) {
	tmpl, err := LoadTemplate(strings.NewReader("name: x\nnpc: y\n"))
	require.NoError(t, err)

	in := tmpl.NegotiationCreate()
	assert.Nil(t, in.Interest)
	assert.Nil(t, in.Patience)
	assert.Nil(t, in.PatienceCap)
}

func newSession(t *testing.T) *negotiation.Session {
	t.Helper()
	e := negotiation.NewEngine()
	s, err := e.Create(negotiation.CreateInput{
		Name:        "Toll",
		NPCName:     "Grub",
		Interest:    2,
		Patience:    3,
		PatienceCap: 5,
		Motivations: []negotiation.MotivationSeed{
			{Type: negotiation.MotivationGreed, Known: true},
			{Type: negotiation.MotivationProtection},
		},
		Pitfalls: []negotiation.PitfallSeed{{Description: "The flood"}},
	})
	require.NoError(t, err)
	require.NoError(t, e.Start(s))

	greed := negotiation.MotivationGreed
	_, err = e.ApplyArgument(s, negotiation.ArgumentInput{
		Tier:           2,
		Description:    "Offer a silver ring",
		MotivationType: &greed,
		InterestChange: 1,
		PatienceChange: -1,
	})
	require.NoError(t, err)
	return s
}

func TestTemplateFromSessionKeepsRevealState(t *testing.T) {
	s := newSession(t)

	tmpl := TemplateFromSession(s)
	assert.Equal(t, "Grub", tmpl.NPC)
	// opening counters, not the current ones
	assert.Equal(t, 2, *tmpl.Interest)
	assert.Equal(t, 3, *tmpl.Patience)
	assert.Equal(t, 5, *tmpl.PatienceCap)
	require.Len(t, tmpl.Motivations, 2)
	assert.True(t, tmpl.Motivations[0].Known)
	assert.False(t, tmpl.Motivations[1].Known)

	data, err := encodeYAML(tmpl)
	require.NoError(t, err)
	back, err := LoadTemplate(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, tmpl, back)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newSession(t)

	data, err := ExportSnapshot(s)
	require.NoError(t, err)

	got, err := ImportSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Counters, got.Counters)
	require.Len(t, got.Arguments, 1)
	assert.Equal(t, "Offer a silver ring", got.Arguments[0].Description)
}

func TestImportSnapshotRejectsBrokenState(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"unknown field", `{"id":"x","mood":"grumpy"}`},
		{"missing id", `{"name":"x"}`},
		{"interest out of range", `{"id":"x","name":"x","npc_name":"y","status":"active","counters":{"interest":9,"patience":1,"patience_cap":5},"opening":{"interest":2,"patience":1,"patience_cap":5},"traits":{},"arguments":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportSnapshot([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
