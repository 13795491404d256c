package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJSONToYAMLUsesBlockStyle(t *testing.T) {
	v := struct {
		Name     string   `json:"name"`
		Code     string   `json:"code"`
		Interest int      `json:"interest"`
		Pitfalls []string `json:"pitfalls"`
	}{Name: "Grub the troll", Code: "007", Interest: 3, Pitfalls: []string{"Goats"}}

	out, err := jsonToYAML(v)
	require.NoError(t, err)

	assert.Contains(t, string(out), "name: Grub the troll\n")
	assert.Contains(t, string(out), "interest: 3\n")
	assert.Contains(t, string(out), "- Goats\n")
	assert.NotContains(t, string(out), "{")

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "007", back["code"])
	assert.Equal(t, 3, back["interest"])
}
