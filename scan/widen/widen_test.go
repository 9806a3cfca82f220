package widen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/catalog"
	"github.com/teranos/stamp/scan/registry"
)

var refTime = time.Date(2026, time.March, 21, 13, 30, 0, 0, time.UTC)

// anchoredAt returns a resolved span for display that a previous pass
// collapsed to marker at start
func anchoredAt(t *testing.T, c *catalog.Catalog, patternID string, start int, display, marker string) *registry.Resolved {
	t.Helper()
	p, ok := c.Lookup(patternID)
	require.True(t, ok)
	fresh := registry.NewFresh(start, display, p.ID(), p.Index())
	return registry.NewResolved(fresh, refTime, registry.ViaStrict).Anchor(start, marker)
}

func TestWidenAnchoredSpan(t *testing.T) {
	c := catalog.Builtin()
	text := "at " + registry.DefaultMarker + " on 21/03"

	reg := registry.New()
	anchor := anchoredAt(t, c, "time_hm", 3, "13:30", registry.DefaultMarker)
	require.True(t, reg.Insert(anchor).Accepted)
	reg.Scan(c, text)
	require.Equal(t, 2, reg.Len(), "anchor plus on_date")

	res, err := New(c).Widen(reg, text)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
	assert.False(t, res.Exhausted)

	spans := reg.Spans()
	require.Len(t, spans, 1)
	ext, ok := spans[0].(*registry.Extended)
	require.True(t, ok)
	assert.Equal(t, "at_time_on_date", ext.PatternID())
	assert.Equal(t, text, ext.Text())
	assert.Equal(t, "at 13:30 on 21/03", ext.Display())
	assert.Same(t, anchor, ext.Inner())
}

func TestWidenStopsAtBoundary(t *testing.T) {
	c := catalog.Builtin()
	text := "13:30 xyz"

	reg := registry.New()
	reg.Scan(c, text)

	res, err := New(c).Widen(reg, text)
	require.NoError(t, err)
	assert.Zero(t, res.Accepted)

	spans := reg.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "13:30", spans[0].Display())
	assert.Equal(t, registry.StateFresh, spans[0].State())
}

func TestWidenGrowsIteratively(t *testing.T) {
	c, err := catalog.New(
		catalog.Definition{ID: "time_hm", Grammar: "[HH]:[mm]"},
		catalog.Definition{ID: "at_time", Grammar: "at {time_hm}"},
		catalog.Definition{ID: "at_time_sharp", Grammar: "{at_time} sharp"},
	)
	require.NoError(t, err)

	text := "meet at ? sharp"
	reg := registry.New()
	reg.Insert(anchoredAt(t, c, "time_hm", 8, "13:30", "?"))

	res, err := New(c).Widen(reg, text)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)

	spans := reg.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "at_time_sharp", spans[0].PatternID())
	assert.Equal(t, "at 13:30 sharp", spans[0].Display())
	assert.Equal(t, "at ? sharp", spans[0].Text())

	inner, ok := spans[0].(*registry.Extended).Inner().(*registry.Extended)
	require.True(t, ok)
	assert.Equal(t, "at 13:30", inner.Display())
}

func TestWidenBudget(t *testing.T) {
	c := catalog.Builtin()
	text := "at " + registry.DefaultMarker + " on 21/03"

	reg := registry.New()
	reg.Insert(anchoredAt(t, c, "time_hm", 3, "13:30", registry.DefaultMarker))
	reg.Scan(c, text)

	res, err := New(c, WithMaxCandidates(1)).Widen(reg, text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWideningBudget))
	assert.True(t, res.Exhausted)
	assert.Equal(t, 1, res.Tried)
	assert.Equal(t, 2, reg.Len())
}

func TestCandidate(t *testing.T) {
	fresh := registry.NewFresh(0, "13:30", "time_hm", 18)
	resolved := registry.NewResolved(fresh, refTime, registry.ViaStrict)

	assert.True(t, Candidate(fresh))
	assert.False(t, Candidate(resolved))
	assert.True(t, Candidate(resolved.Anchor(0, "?")))
	assert.False(t, Candidate(registry.NewExtended(0, "at 13:30", "at_time", 7, "at 13:30", fresh)))
}
