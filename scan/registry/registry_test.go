package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/catalog"
)

var refTime = time.Date(2026, time.March, 21, 13, 30, 0, 0, time.UTC)

// assertNonOverlapping checks the registry invariant: no two held spans
// intersect, touching boundaries included
func assertNonOverlapping(t *testing.T, r *Registry) {
	t.Helper()
	spans := r.Spans()
	for i := 1; i < len(spans); i++ {
		assert.Less(t, spans[i-1].End(), spans[i].Start(),
			"spans %q and %q intersect", spans[i-1].Text(), spans[i].Text())
	}
}

func displays(spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Display()
	}
	return out
}

func TestInsertKeepsOrder(t *testing.T) {
	r := New()
	require.True(t, r.Insert(NewFresh(20, "21/03", "date_dm", 15)).Accepted)
	require.True(t, r.Insert(NewFresh(0, "13:30", "time_hm", 18)).Accepted)
	require.True(t, r.Insert(NewFresh(10, "14:00", "time_hm", 18)).Accepted)

	assert.Equal(t, []string{"13:30", "14:00", "21/03"}, displays(r.Spans()))
	assertNonOverlapping(t, r)
}

func TestInsertLongerWins(t *testing.T) {
	t.Run("longer candidate displaces", func(t *testing.T) {
		r := New()
		short := NewFresh(3, "13:30", "time_hm", 18)
		r.Insert(short)

		out := r.Insert(NewFresh(0, "at 13:30", "at_time", 7))
		assert.True(t, out.Accepted)
		assert.Equal(t, ReasonInserted, out.Reason)
		assert.Equal(t, []Span{short}, out.Displaced)
		assert.Equal(t, []string{"at 13:30"}, displays(r.Spans()))
	})

	t.Run("shorter candidate discarded", func(t *testing.T) {
		r := New()
		long := NewFresh(0, "at 13:30", "at_time", 7)
		r.Insert(long)

		out := r.Insert(NewFresh(3, "13:30", "time_hm", 18))
		assert.False(t, out.Accepted)
		assert.Equal(t, ReasonLonger, out.Reason)
		assert.Same(t, long, out.Blocker)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("length counts display runes", func(t *testing.T) {
		r := New()
		anchored := NewResolved(NewFresh(3, "13:30", "time_hm", 18), refTime, ViaStrict).Anchor(3, DefaultMarker)
		r.Insert(anchored)

		// "at ￼" is 6 bytes but shorter than the 5-rune display it overlaps
		out := r.Insert(NewFresh(0, "at "+DefaultMarker, "other", 0))
		assert.False(t, out.Accepted)
	})
}

func TestInsertPartialOverlapDisplacesAll(t *testing.T) {
	r := New()
	a := NewFresh(0, "at 13:30", "at_time", 7)
	b := NewFresh(10, "21/03", "date_dm", 15)
	r.Insert(a)
	r.Insert(b)

	out := r.Insert(NewFresh(5, "30 or 21/03", "wide", 20))
	require.True(t, out.Accepted)
	assert.ElementsMatch(t, []Span{a, b}, out.Displaced)
	assert.Equal(t, []string{"30 or 21/03"}, displays(r.Spans()))
	assertNonOverlapping(t, r)
}

func TestInsertTieBreak(t *testing.T) {
	t.Run("touching boundaries intersect", func(t *testing.T) {
		r := New()
		first := NewFresh(0, "13:30", "time_hm", 18)
		r.Insert(first)

		out := r.Insert(NewFresh(5, "14:00", "time_hm", 18))
		assert.False(t, out.Accepted)
		assert.Equal(t, ReasonTieBreak, out.Reason)
		assert.Same(t, first, out.Blocker)
	})

	t.Run("catalog mode prefers earlier pattern", func(t *testing.T) {
		r := New(WithTieBreak(TieCatalog))
		r.Insert(NewFresh(0, "21 March", "day_month", 12))

		out := r.Insert(NewFresh(0, "21 March", "day_month_alt", 4))
		assert.True(t, out.Accepted)
		assert.Equal(t, "day_month_alt", r.Spans()[0].PatternID())

		out = r.Insert(NewFresh(0, "21 March", "later", 9))
		assert.False(t, out.Accepted)
		assert.Equal(t, "day_month_alt", r.Spans()[0].PatternID())
	})

	t.Run("last mode prefers newcomer", func(t *testing.T) {
		r := New(WithTieBreak(TieLast))
		r.Insert(NewFresh(0, "13:30", "time_hm", 18))

		out := r.Insert(NewFresh(5, "14:00", "time_hm", 18))
		assert.True(t, out.Accepted)
		assert.Equal(t, []string{"14:00"}, displays(r.Spans()))
		assert.Equal(t, TieLast, r.TieBreak())
	})
}

func TestParseTieBreak(t *testing.T) {
	tb, err := ParseTieBreak("")
	require.NoError(t, err)
	assert.Equal(t, TieCatalog, tb)

	tb, err = ParseTieBreak(" LAST ")
	require.NoError(t, err)
	assert.Equal(t, TieLast, tb)
	assert.Equal(t, "last", tb.String())

	_, err = ParseTieBreak("first")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestQuery(t *testing.T) {
	r := New()
	r.Insert(NewFresh(0, "13:30", "time_hm", 18))
	r.Insert(NewFresh(10, "14:00", "time_hm", 18))
	r.Insert(NewFresh(20, "15:00", "time_hm", 18))

	assert.Equal(t, []string{"14:00"}, displays(r.Query(12, 1)))
	assert.Equal(t, []string{"13:30", "14:00"}, displays(r.Query(5, 5)))
	assert.Empty(t, r.Query(6, 3))
	assert.Len(t, r.Query(0, 100), 3)
}

func TestReplaceAndClone(t *testing.T) {
	r := New(WithTieBreak(TieLast))
	fresh := NewFresh(0, "13:30", "time_hm", 18)
	r.Insert(fresh)

	clone := r.Clone()
	resolved := NewResolved(fresh, refTime, ViaStrict)
	require.True(t, r.Replace(fresh, resolved))
	assert.Equal(t, StateResolved, r.Spans()[0].State())
	assert.Equal(t, StateFresh, clone.Spans()[0].State())
	assert.Equal(t, TieLast, clone.TieBreak())

	assert.False(t, r.Replace(fresh, resolved), "old span no longer held")
	assert.False(t, r.Replace(resolved, NewFresh(0, "13:3", "x", 0)), "range differs")
	assert.True(t, r.Holds(resolved))
	assert.False(t, r.Holds(fresh))
}

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"composite wins", "see you at 13:30 on 21/03 ok?", []string{"at 13:30 on 21/03"}},
		{"iso with seconds", "logged 2024-03-21 13:30:45 UTC", []string{"2024-03-21 13:30:45"}},
		{"several", "meet 21 March 2026 or 22 Mar at 9:15am", []string{"21 March 2026", "22 Mar", "at 9:15am"}},
		{"nothing", "no times here, just 1234 and 99:99", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			stats := r.Scan(catalog.Builtin(), tt.text)
			if tt.want == nil {
				assert.Zero(t, r.Len())
				return
			}
			assert.Equal(t, tt.want, displays(r.Spans()))
			assert.Equal(t, stats.Matches, stats.Accepted+stats.Discarded)
			assertNonOverlapping(t, r)
			for _, s := range r.Spans() {
				assert.Equal(t, tt.text[s.Start():s.End()], s.Text())
			}
		})
	}
}

func resolvedAt(start int, text string) *Resolved {
	return NewResolved(NewFresh(start, text, "time_hm", 18), refTime, ViaStrict)
}

func TestReconcileNoMarkers(t *testing.T) {
	r := New()
	r.Insert(resolvedAt(0, "13:30"))
	r.Insert(NewFresh(10, "31/02", "date_dm", 15))

	kept, stale := r.Reconcile("13:30 and 31/02", DefaultMarker)
	assert.Empty(t, kept)
	require.Len(t, stale, 2)
	assert.Equal(t, 0, r.Len())

	reasons := []string{stale[0].Reason(), stale[1].Reason()}
	assert.ElementsMatch(t, []string{StaleUnresolved, StaleNoMarkers}, reasons)
}

func TestReconcilePairsInOrder(t *testing.T) {
	r := New()
	r.Insert(resolvedAt(3, "13:30"))

	text := "at " + DefaultMarker + " on 21/03"
	kept, stale := r.Reconcile(text, "")
	assert.Empty(t, stale)
	require.Len(t, kept, 1)

	s := kept[0]
	assert.Equal(t, 3, s.Start())
	assert.Equal(t, DefaultMarker, s.Text())
	assert.Equal(t, "13:30", s.Display())
	assert.True(t, s.Anchored())
	assert.True(t, IsAnchored(r.Spans()[0]))
	assert.Equal(t, refTime, s.Time())
}

func TestReconcilePositional(t *testing.T) {
	const m = "?"

	t.Run("markers where collapsed spans would be", func(t *testing.T) {
		r := New()
		r.Insert(resolvedAt(0, "13:30"))
		r.Insert(resolvedAt(10, "14:00"))

		// "13:30 and 14:00" collapsed, plus one unrelated marker
		kept, stale := r.Reconcile("? and ? ?", m)
		assert.Empty(t, stale)
		require.Len(t, kept, 2)
		assert.Equal(t, 0, kept[0].Start())
		assert.Equal(t, 6, kept[1].Start())
	})

	t.Run("shifted text drops spans", func(t *testing.T) {
		r := New()
		r.Insert(resolvedAt(0, "13:30"))
		r.Insert(resolvedAt(10, "14:00"))

		kept, stale := r.Reconcile("x ? and ? ?", m)
		assert.Empty(t, kept)
		require.Len(t, stale, 2)
		for _, s := range stale {
			assert.Equal(t, StaleMoved, s.Reason())
			assert.Equal(t, StateStale, s.State())
		}
	})
}

func TestReconcileSpanStillInPlace(t *testing.T) {
	r := New()
	r.Insert(resolvedAt(8, "at 13:30 on 21/03"))

	// one marker and one span, but the span was never collapsed
	kept, stale := r.Reconcile("see you at 13:30 on 21/03 ok?", "?")
	assert.Empty(t, kept)
	require.Len(t, stale, 1)
	assert.Equal(t, StaleMoved, stale[0].Reason())
	assert.Equal(t, 0, r.Len())
}

func TestReconcileAnchoredSpanInPlace(t *testing.T) {
	r := New()
	r.Insert(resolvedAt(0, "13:30").Anchor(0, "?"))
	r.Insert(resolvedAt(10, "14:00"))

	// the first marker was already there, the second span collapsed after
	// text was typed in front of it
	kept, stale := r.Reconcile("? then and ?", "?")
	assert.Empty(t, stale)
	require.Len(t, kept, 2)
	assert.Equal(t, 11, kept[1].Start())
}

func TestReconcileAdjacentMarkers(t *testing.T) {
	r := New()
	r.Insert(resolvedAt(0, "13:30"))
	r.Insert(resolvedAt(10, "14:00"))

	kept, stale := r.Reconcile(DefaultMarker+DefaultMarker, DefaultMarker)
	require.Len(t, kept, 1)
	require.Len(t, stale, 1)
	assertNonOverlapping(t, r)
}

func TestSpanVariants(t *testing.T) {
	inner := resolvedAt(3, "13:30").Anchor(3, DefaultMarker)
	ext := NewExtended(0, "at "+DefaultMarker, "at_time", 7, "at 13:30", inner)

	assert.Equal(t, StateExtended, ext.State())
	assert.Equal(t, "at 13:30", ext.Display())
	assert.Equal(t, "at "+DefaultMarker, ext.Text())
	assert.Equal(t, len("at "+DefaultMarker), ext.End())
	assert.Same(t, inner, ext.Inner())

	res := NewResolved(ext, refTime, ViaLenient)
	assert.Equal(t, "at 13:30", res.Display())
	assert.Equal(t, ViaLenient, res.Via())
	assert.False(t, res.Anchored())
	assert.Equal(t, "at_time", res.PatternID())
	assert.Equal(t, 7, res.CatalogIndex())

	assert.Equal(t, "fresh", StateFresh.String())
	assert.Equal(t, "stale", NewStale(ext, StaleMoved).State().String())
}
