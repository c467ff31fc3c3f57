package filterexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComparisons(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Condition
	}{
		{
			name: "greater than float",
			src:  `input.Ef > 0.2`,
			want: []Condition{{Field: "input.Ef", Op: ">", Value: 0.2}},
		},
		{
			name: "equality int",
			src:  `input.Lg == 45`,
			want: []Condition{{Field: "input.Lg", Op: "=", Value: int64(45)}},
		},
		{
			name: "not equals string",
			src:  `input.name != "fet"`,
			want: []Condition{{Field: "input.name", Op: "!=", Value: "fet"}},
		},
		{
			name: "less or equal",
			src:  `input.temperature <= 300`,
			want: []Condition{{Field: "input.temperature", Op: "<=", Value: int64(300)}},
		},
		{
			name: "greater or equal",
			src:  `input.temperature >= 77`,
			want: []Condition{{Field: "input.temperature", Op: ">=", Value: int64(77)}},
		},
		{
			name: "negative literal",
			src:  `input.Ef < -0.4`,
			want: []Condition{{Field: "input.Ef", Op: "<", Value: -0.4}},
		},
		{
			name: "bool literal",
			src:  `input.gated == true`,
			want: []Condition{{Field: "input.gated", Op: "=", Value: true}},
		},
		{
			name: "deeply dotted field",
			src:  `output.fields.f41 > 1`,
			want: []Condition{{Field: "output.fields.f41", Op: ">", Value: int64(1)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConjunction(t *testing.T) {
	got, err := Parse(`input.Ef > 0.2 && input.Ef < 0.4 && input.Lg == 45`)
	require.NoError(t, err)

	// Conditions appear in left-to-right source order.
	require.Len(t, got, 3)
	assert.Equal(t, Condition{Field: "input.Ef", Op: ">", Value: 0.2}, got[0])
	assert.Equal(t, Condition{Field: "input.Ef", Op: "<", Value: 0.4}, got[1])
	assert.Equal(t, Condition{Field: "input.Lg", Op: "=", Value: int64(45)}, got[2])
}

func TestParseIn(t *testing.T) {
	got, err := Parse(`input.Lg in [20, 45, 60]`)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "in", got[0].Op)
	assert.Equal(t, []any{int64(20), int64(45), int64(60)}, got[0].Value)
}

func TestParseLike(t *testing.T) {
	t.Run("global form", func(t *testing.T) {
		got, err := Parse(`like(input.name, "fet%")`)
		require.NoError(t, err)
		assert.Equal(t, []Condition{{Field: "input.name", Op: "like", Value: "fet%"}}, got)
	})

	t.Run("member form", func(t *testing.T) {
		got, err := Parse(`input.name.like("%transistor%")`)
		require.NoError(t, err)
		assert.Equal(t, []Condition{{Field: "input.name", Op: "like", Value: "%transistor%"}}, got)
	})

	t.Run("non-string pattern", func(t *testing.T) {
		_, err := Parse(`like(input.name, 42)`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "string pattern")
	})
}

func TestParseRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"disjunction", `input.Ef > 0.2 || input.Lg == 45`, "||"},
		{"bare identifier", `input.valid`, "expected a comparison"},
		{"literal lhs", `0.2 > input.Ef`, "field name"},
		{"computed rhs", `input.Ef > input.Lg`, "literal value"},
		{"arithmetic rhs", `input.Ef > 1 + 2`, "literal value"},
		{"in without list", `input.Lg in input.valid`, "literal list"},
		{"negated comparison", `!(input.Ef > 0.2)`, "unsupported operator"},
		{"unknown function", `startsWith(input.name, "fet")`, "unsupported operator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, src := range []string{``, `input.Ef >`, `&& input.Ef > 1`, `input.Ef > 0.2 &&`} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			assert.Error(t, err)
		})
	}
}
