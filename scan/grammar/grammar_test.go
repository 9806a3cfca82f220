package grammar

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stamp/errors"
)

func lookupOf(t *testing.T, defs map[string]string) Lookup {
	t.Helper()
	parsed := make(map[string][]Node, len(defs))
	for id, src := range defs {
		nodes, err := Parse(src)
		require.NoError(t, err, "grammar %s", id)
		parsed[id] = nodes
	}
	return func(id string) ([]Node, bool) {
		nodes, ok := parsed[id]
		return nodes, ok
	}
}

func TestParse(t *testing.T) {
	nodes, err := Parse("at {time_hm} on {date_dm}")
	require.NoError(t, err)
	assert.Equal(t, []Node{
		Lit("at"), Space(), Sub("time_hm"), Space(), Lit("on"), Space(), Sub("date_dm"),
	}, nodes)

	nodes, err = Parse("[h]:[mm][ampm]")
	require.NoError(t, err)
	assert.Equal(t, []Node{Field("h"), Lit(":"), Field("mm"), Field("ampm")}, nodes)
}

func TestParseCollapsesSpaceRuns(t *testing.T) {
	nodes, err := Parse("[d]   [Month]")
	require.NoError(t, err)
	assert.Equal(t, []Node{Field("d"), Space(), Field("Month")}, nodes)
}

func TestParseEscapes(t *testing.T) {
	nodes, err := Parse(`\[[HH]\]\ h`)
	require.NoError(t, err)
	assert.Equal(t, []Node{Lit("["), Field("HH"), Lit("] h")}, nodes)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		errContains string
	}{
		{"empty", "", "empty grammar"},
		{"dangling escape", `[HH]\`, "dangling escape"},
		{"unterminated field", "[HH", "unterminated field"},
		{"unknown field", "[QQ]", "unknown field [QQ]"},
		{"unterminated reference", "{time_hm", "unterminated reference"},
		{"empty reference", "{}", "invalid reference"},
		{"reference with space", "{time hm}", "invalid reference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, src := range []string{
		"[dd]/[MM]/[yyyy]",
		"at {time_hm} on {date_dm}",
		`\[[HH]\]`,
	} {
		nodes, err := Parse(src)
		require.NoError(t, err)
		again, err := Parse(String(nodes))
		require.NoError(t, err)
		assert.Equal(t, nodes, again, src)
	}
}

func TestExpression(t *testing.T) {
	lookup := lookupOf(t, map[string]string{"time_hm": "[HH]:[mm]"})

	nodes, _ := Parse("[HH]:[mm]")
	expr, err := Expression(nodes, lookup, "")
	require.NoError(t, err)
	assert.Equal(t, `\b(?:[01]\d|2[0-3]):(?:[0-5]\d)\b`, expr)

	nodes, _ = Parse("at {time_hm}")
	expr, err = Expression(nodes, lookup, "")
	require.NoError(t, err)
	re := regexp.MustCompile(expr)
	assert.Equal(t, "at 13:30", re.FindString("meet at 13:30."))
	assert.Empty(t, re.FindString("meet bat 13:30"))
	assert.Empty(t, re.FindString("at 13:305"))
}

func TestExpressionHoleEdges(t *testing.T) {
	nodes := []Node{Lit("at"), Space(), Hole()}

	expr, err := Expression(nodes, nil, "￼")
	require.NoError(t, err)
	assert.Equal(t, `\bat +(?P<hole>`+"￼"+`)`, expr)

	expr, err = Expression(nodes, nil, "13:30")
	require.NoError(t, err)
	assert.Equal(t, `\bat +(?P<hole>13:30)\b`, expr)
}

func TestLayoutAndComponents(t *testing.T) {
	lookup := lookupOf(t, map[string]string{
		"time_hm":  "[HH]:[mm]",
		"time_12h": "[h]:[mm][ampm]",
		"date_dm":  "[dd]/[MM]",
	})

	tests := []struct {
		src    string
		layout string
		comps  Component
	}{
		{"at {time_hm} on {date_dm}", "at 15:04 on 02/01", Hour | Minute | Month | Day},
		{"at {time_12h}", "at 3:04pm", Hour | Minute | Meridiem},
		{"[d] [Month] [yyyy]", "2 January 2006", Day | Month | Year},
		{"[Mon] [d]", "Jan 2", Month | Day},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			nodes, err := Parse(tt.src)
			require.NoError(t, err)

			layout, err := Layout(nodes, lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.layout, layout)

			comps, err := Components(nodes, lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.comps, comps)
		})
	}
}

func TestComponentPredicates(t *testing.T) {
	assert.True(t, (Month | Day).HasDate())
	assert.False(t, Day.HasDate())
	assert.True(t, (Hour | Minute).HasTime())
	assert.False(t, (Year | Month | Day).HasTime())
}

func TestSubstitute(t *testing.T) {
	lookup := lookupOf(t, map[string]string{
		"time_hm": "[HH]:[mm]",
		"at_time": "at {time_hm}",
		"between": "{time_hm}-{time_hm}",
	})

	t.Run("direct", func(t *testing.T) {
		nodes, _ := Parse("at {time_hm}")
		variants, err := Substitute(nodes, "time_hm", lookup)
		require.NoError(t, err)
		require.Len(t, variants, 1)
		assert.Equal(t, []Node{Lit("at"), Space(), Hole()}, variants[0])
	})

	t.Run("nested", func(t *testing.T) {
		nodes, _ := Parse("{at_time} sharp")
		variants, err := Substitute(nodes, "time_hm", lookup)
		require.NoError(t, err)
		require.Len(t, variants, 1)
		assert.Equal(t, []Node{Lit("at"), Space(), Hole(), Space(), Lit("sharp")}, variants[0])
	})

	t.Run("one variant per occurrence", func(t *testing.T) {
		nodes, _ := Parse("{between}")
		variants, err := Substitute(nodes, "time_hm", lookup)
		require.NoError(t, err)
		require.Len(t, variants, 2)
		assert.Equal(t, []Node{Hole(), Lit("-"), Sub("time_hm")}, variants[0])
		assert.Equal(t, []Node{Sub("time_hm"), Lit("-"), Hole()}, variants[1])
	})

	t.Run("absent", func(t *testing.T) {
		nodes, _ := Parse("[dd]/[MM]")
		ok, err := Contains(nodes, "time_hm", lookup)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReferenceErrors(t *testing.T) {
	lookup := lookupOf(t, map[string]string{
		"a": "{b}",
		"b": "x{a}",
	})

	nodes, _ := Parse("{a}")
	_, err := Layout(nodes, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference cycle")

	nodes, _ = Parse("{missing}")
	_, err = Expression(nodes, lookup, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reference {missing}")
}

func TestFieldsSorted(t *testing.T) {
	fields := Fields()
	require.NotEmpty(t, fields)
	for i := 1; i < len(fields); i++ {
		assert.Less(t, string(fields[i-1]), string(fields[i]))
	}
	assert.True(t, FieldKind("Month").Known())
	assert.False(t, FieldKind("QQ").Known())

	_, err := Parse("[QQ]:[mm]")
	require.Error(t, err)
	hint := errors.FlattenHints(err)
	assert.Contains(t, hint, "[Month]")
	assert.Contains(t, hint, "[yyyy]")
}
