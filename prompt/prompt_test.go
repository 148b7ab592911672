package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promptforge/promptforge/variables"
)

func samplePrompts() []Prompt {
	return []Prompt{
		{
			ID:          "1",
			Title:       "Creative Writing Assistant",
			Description: "Generate engaging stories and creative content.",
			Tags:        []string{"creative", "storytelling"},
		},
		{
			ID:          "2",
			Title:       "Business Email Generator",
			Description: "Create professional business emails.",
			Tags:        []string{"email", "professional"},
		},
		{
			ID:          "3",
			Title:       "Code Documentation Writer",
			Description: "Document functions and modules.",
			Tags:        []string{"development", "docs"},
		},
	}
}

func TestFilter_MatchesTitleCaseInsensitive(t *testing.T) {
	got := Filter(samplePrompts(), "EMAIL")
	assert.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestFilter_MatchesDescription(t *testing.T) {
	got := Filter(samplePrompts(), "stories")
	assert.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestFilter_MatchesTags(t *testing.T) {
	got := Filter(samplePrompts(), "docs")
	assert.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestFilter_EmptyQueryReturnsAll(t *testing.T) {
	prompts := samplePrompts()
	assert.Equal(t, prompts, Filter(prompts, ""))
	assert.Equal(t, prompts, Filter(prompts, "   "))
}

func TestFilter_NoMatch(t *testing.T) {
	assert.Empty(t, Filter(samplePrompts(), "zzz-no-such-thing"))
}

func TestFilter_PreservesOrder(t *testing.T) {
	got := Filter(samplePrompts(), "e")
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestVariableNames(t *testing.T) {
	p := Prompt{Variables: []variables.Variable{
		{Name: "topic"},
		{Name: "audience"},
	}}
	assert.Equal(t, []string{"topic", "audience"}, p.VariableNames())

	empty := Prompt{}
	assert.Nil(t, empty.VariableNames())
}

func TestNormalize_AppliesFallbacks(t *testing.T) {
	p := Prompt{Title: "  ", Category: ""}
	Normalize(&p)
	assert.Equal(t, "Untitled Prompt", p.Title)
	assert.Equal(t, "general", p.Category)
	assert.NotNil(t, p.Tags)
}

func TestNormalize_KeepsProvidedValues(t *testing.T) {
	p := Prompt{Title: "  My Prompt ", Category: " Writing ", Tags: []string{"a"}}
	Normalize(&p)
	assert.Equal(t, "My Prompt", p.Title)
	assert.Equal(t, "Writing", p.Category)
	assert.Equal(t, []string{"a"}, p.Tags)
}
