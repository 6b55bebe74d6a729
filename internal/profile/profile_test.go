package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"caf", "chomage", "impots", "logement", "paie"}, Names())
}

func TestGetUnknownDomain(t *testing.T) {
	_, err := Get("retraite")
	assert.Error(t, err)
}

func TestProfilesAreComplete(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, err := Get(name)
			require.NoError(t, err)
			assert.NotEmpty(t, p.Title)
			assert.NotEmpty(t, p.Greeting)
			assert.NotEmpty(t, p.Fallback)
			assert.NotEmpty(t, p.DocsSubdir)
			assert.Greater(t, p.TopK, 0)
			assert.NotEmpty(t, p.GenerationModel)
			assert.Contains(t, p.Collection, "_v", "collection name must carry a version suffix")

			prompt := p.BuildPrompt("CONTEXTE-SENTINELLE", "QUESTION-SENTINELLE")
			assert.Contains(t, prompt, "CONTEXTE-SENTINELLE")
			assert.Contains(t, prompt, "QUESTION-SENTINELLE")
			assert.NotContains(t, prompt, "%!", "template must not have formatting errors")
			assert.True(t, strings.Contains(prompt, "UNIQUEMENT") || strings.Contains(prompt, "uniquement"),
				"prompt must restrict the answer to the supplied context")
		})
	}
}

func TestChomagePrioritizesIntermittents(t *testing.T) {
	p, err := Get("chomage")
	require.NoError(t, err)
	assert.Contains(t, p.PromptTemplate, "chomage_intermittents_spectacle")
	assert.Contains(t, p.PromptTemplate, "annexes 8/10")
}

func TestGetIsCaseInsensitive(t *testing.T) {
	p, err := Get("  Paie ")
	require.NoError(t, err)
	assert.Equal(t, "paie", p.Name)
}
