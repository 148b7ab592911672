package prompt

import (
	"time"

	"github.com/promptforge/promptforge/template"
	"github.com/promptforge/promptforge/variables"
)

// Legacy is the seed-library shape: camelCase counters, an inline
// variable list, the template under "template" and a bare date string.
type Legacy struct {
	ID          string               `json:"id" yaml:"id"`
	Title       string               `json:"title" yaml:"title"`
	Description string               `json:"description" yaml:"description"`
	Category    string               `json:"category" yaml:"category"`
	Tags        []string             `json:"tags" yaml:"tags"`
	Template    string               `json:"template" yaml:"template"`
	Variables   []variables.Variable `json:"variables" yaml:"variables"`
	Author      string               `json:"author" yaml:"author"`
	Likes       int                  `json:"likes" yaml:"likes"`
	UsageCount  int                  `json:"usageCount" yaml:"usageCount"`
	CreatedAt   string               `json:"createdAt" yaml:"createdAt"`
}

// StoredRow is the database row shape: snake_case counters, the
// template under "prompt", no variable list, and an optionally joined
// author profile.
type StoredRow struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PromptText  string     `json:"prompt"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Likes       int        `json:"likes"`
	UsageCount  int        `json:"usage_count"`
	IsFeatured  bool       `json:"is_featured"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	Profile *Profile `json:"profiles,omitempty"`
}

// Profile is the joined author profile from the database.
type Profile struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// legacyDateLayout is the date-only format the seed library uses.
const legacyDateLayout = "2006-01-02"

// FromLegacy converts a legacy-shaped record to the canonical form.
// An unparseable creation date is left as the zero time rather than
// failing the whole record.
func FromLegacy(l Legacy) Prompt {
	createdAt, _ := time.Parse(legacyDateLayout, l.CreatedAt)

	return Prompt{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Tags:        l.Tags,
		Template:    l.Template,
		Variables:   l.Variables,
		Author:      l.Author,
		Likes:       l.Likes,
		UsageCount:  l.UsageCount,
		CreatedAt:   createdAt,
	}
}

// FromStoredRow converts a database row to the canonical form. Rows
// carry no variable declarations, so variables are recovered from the
// template's placeholders as free-text inputs.
func FromStoredRow(row StoredRow) Prompt {
	author := ""
	if row.Profile != nil {
		author = row.Profile.FullName
		if author == "" {
			author = row.Profile.Username
		}
	}

	var vars []variables.Variable
	renderer := template.NewRenderer()
	for _, name := range renderer.ExtractPlaceholderNames(row.PromptText) {
		vars = append(vars, variables.Variable{
			Name: name,
			Type: variables.TypeText,
		})
	}

	updatedAt := time.Time{}
	if row.UpdatedAt != nil {
		updatedAt = *row.UpdatedAt
	}

	return Prompt{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Category:    row.Category,
		Tags:        row.Tags,
		Template:    row.PromptText,
		Variables:   vars,
		Author:      author,
		AuthorID:    row.UserID,
		Likes:       row.Likes,
		UsageCount:  row.UsageCount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}
