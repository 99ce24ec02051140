package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
crew: marketing_posts
stages:
  - name: research
    role: a Lead Market Analyst
    goal: analyze {customer_domain}
    prompt: |
      Research {customer_domain}.
  - name: post
    role: a LinkedIn Post Creator
    prompt: Write the post.
    depends_on: [research]
    output:
      fields:
        - name: content
          description: Content of the LinkedIn post
        - name: hashtags
          description: List of relevant hashtags
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "marketing_posts", cfg.Crew)
	require.Len(t, cfg.Stages, 2)
	assert.Equal(t, "research", cfg.Stages[0].Name)
	assert.Equal(t, []string{"research"}, cfg.Stages[1].DependsOn)
	require.NotNil(t, cfg.Stages[1].Output)
	assert.Len(t, cfg.Stages[1].Output.Fields, 2)
}

func TestParseRejectsEmptyPipeline(t *testing.T) {
	_, err := Parse([]byte("crew: empty\nstages: []\n"))
	assert.ErrorContains(t, err, "no stages")
}

func TestParseRejectsDuplicateStageNames(t *testing.T) {
	_, err := Parse([]byte(`
stages:
  - name: research
    prompt: one
  - name: research
    prompt: two
`))
	assert.ErrorContains(t, err, "duplicate stage name")
}

func TestParseRejectsForwardDependency(t *testing.T) {
	_, err := Parse([]byte(`
stages:
  - name: post
    prompt: write
    depends_on: [research]
  - name: research
    prompt: research
`))
	assert.ErrorContains(t, err, "not an earlier stage")
}

func TestParseRejectsMissingPrompt(t *testing.T) {
	_, err := Parse([]byte(`
stages:
  - name: research
    role: analyst
`))
	assert.ErrorContains(t, err, "no prompt")
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("stages: [unclosed"))
	assert.Error(t, err)
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("../../config/pipeline.yaml")
	require.NoError(t, err)
	assert.Equal(t, "marketing_posts", cfg.Crew)
	assert.NotEmpty(t, cfg.Stages)
}
