package variables

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/statestore"
)

func TestAllFilled(t *testing.T) {
	vars := []Variable{
		{Name: "topic", Required: true},
		{Name: "tone", Required: false},
	}

	tests := []struct {
		name   string
		values map[string]string
		want   bool
	}{
		{"all required filled", map[string]string{"topic": "black holes"}, true},
		{"required missing", map[string]string{"tone": "formal"}, false},
		{"required empty", map[string]string{"topic": ""}, false},
		{"required whitespace-only", map[string]string{"topic": "   "}, false},
		{"optional state irrelevant", map[string]string{"topic": "x", "tone": ""}, true},
		{"no values at all", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllFilled(vars, tt.values))
		})
	}
}

func TestAllFilled_NoRequiredVariables(t *testing.T) {
	vars := []Variable{{Name: "tone"}, {Name: "style"}}
	assert.True(t, AllFilled(vars, nil))
}

func TestMissing(t *testing.T) {
	vars := []Variable{
		{Name: "topic", Required: true},
		{Name: "audience", Required: true},
		{Name: "tone"},
	}

	missing := Missing(vars, map[string]string{"topic": "x"})
	assert.Equal(t, []string{"audience"}, missing)

	assert.Nil(t, Missing(vars, map[string]string{"topic": "x", "audience": "y"}))
}

func TestChainProvider_MergeOrder(t *testing.T) {
	chain := Chain(
		StaticProvider{"a": "first", "b": "first"},
		StaticProvider{"b": "second"},
	)

	vars, err := chain.Provide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", vars["a"])
	assert.Equal(t, "second", vars["b"])
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Provide(context.Context) (map[string]string, error) {
	return nil, errors.New("boom")
}

func TestChainProvider_PropagatesFailure(t *testing.T) {
	chain := Chain(StaticProvider{"a": "1"}, failingProvider{})

	_, err := chain.Provide(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
}

func TestSessionProvider(t *testing.T) {
	store := statestore.NewMemoryStore()
	ctx := context.Background()

	session := statestore.NewSession("sess-1", "p1")
	session.SetValue("topic", "time travel")
	require.NoError(t, store.Save(ctx, session))

	provider := NewSessionProvider(store, "sess-1")
	vars, err := provider.Provide(ctx)
	require.NoError(t, err)
	assert.Equal(t, "time travel", vars["topic"])
}

func TestSessionProvider_MissingSession(t *testing.T) {
	provider := NewSessionProvider(statestore.NewMemoryStore(), "nope")

	vars, err := provider.Provide(context.Background())
	require.NoError(t, err)
	assert.Nil(t, vars)
}

func TestSessionProvider_NilStore(t *testing.T) {
	provider := NewSessionProvider(nil, "sess-1")

	vars, err := provider.Provide(context.Background())
	require.NoError(t, err)
	assert.Nil(t, vars)
}

func TestTimeProvider(t *testing.T) {
	provider := NewTimeProvider()
	provider.nowFunc = func() time.Time {
		return time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	}

	vars, err := provider.Provide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", vars["current_date"])
	assert.Equal(t, "2025", vars["current_year"])
	assert.Equal(t, "Monday", vars["current_weekday"])
}
