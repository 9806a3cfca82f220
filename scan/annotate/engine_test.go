package annotate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/catalog"
	"github.com/teranos/stamp/scan/registry"
	"github.com/teranos/stamp/scan/resolve"
)

const marker = registry.DefaultMarker

var mockNow = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return newTestEngineWith(t, catalog.Builtin(), opts, resolve.WithLenient(true))
}

func newTestEngineWith(t *testing.T, c *catalog.Catalog, opts []Option, resolveOpts ...resolve.Option) *Engine {
	t.Helper()
	resolveOpts = append([]resolve.Option{
		resolve.WithNow(func() time.Time { return mockNow }),
		resolve.WithLocation(time.UTC),
	}, resolveOpts...)
	return New(append([]Option{
		WithCatalog(c),
		WithResolver(resolve.New(c, resolveOpts...)),
	}, opts...)...)
}

type segmentView struct {
	Kind    SegmentKind
	Text    string
	Display string
}

func view(a *AnnotatedText) []segmentView {
	out := make([]segmentView, len(a.Segments))
	for i, s := range a.Segments {
		out[i] = segmentView{Kind: s.Kind, Text: s.Text, Display: s.Display}
	}
	return out
}

func assertSegmentsCoverText(t *testing.T, a *AnnotatedText) {
	t.Helper()
	pos := 0
	for i, s := range a.Segments {
		assert.Equal(t, pos, s.Start, "segment %d", i)
		assert.Equal(t, a.Text[s.Start:s.End], s.Text, "segment %d", i)
		if i > 0 && !s.IsSpan() {
			assert.True(t, a.Segments[i-1].IsSpan(), "adjacent plain segments at %d", i)
		}
		pos = s.End
	}
	assert.Equal(t, len(a.Text), pos)
}

func TestAnnotateEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	out := e.Text("see you at 13:30 on 21/03 ok?")

	assert.Equal(t, []segmentView{
		{Kind: SegmentPlain, Text: "see you "},
		{Kind: SegmentSpan, Text: "at 13:30 on 21/03", Display: "at 13:30 on 21/03"},
		{Kind: SegmentPlain, Text: " ok?"},
	}, view(out))
	assertSegmentsCoverText(t, out)

	span := out.Segments[1]
	require.NotNil(t, span.Time)
	assert.Equal(t, time.Date(2026, time.March, 21, 13, 30, 0, 0, time.UTC), *span.Time)
	assert.Equal(t, registry.ViaStrict, span.Via)
	assert.Equal(t, "at_time_on_date", span.PatternID)
	assert.Equal(t, Position{Line: 1, Character: 8, Offset: 8}, span.Range.Start)
	assert.Empty(t, out.Diagnostics)
}

func TestAnnotateStrictBeforeLenient(t *testing.T) {
	out := newTestEngine(t).Text("due 2024-03-21")

	spans := out.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2024, time.March, 21, 0, 0, 0, 0, time.UTC), *spans[0].Time)
	assert.Equal(t, registry.ViaStrict, spans[0].Via)
}

func TestAnnotateLongestMatch(t *testing.T) {
	out := newTestEngine(t).Text("logged 2024-03-21 13:30:45 by cron")

	spans := out.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "2024-03-21 13:30:45", spans[0].Text)
	assert.Equal(t, time.Date(2024, time.March, 21, 13, 30, 45, 0, time.UTC), *spans[0].Time)
}

func TestAnnotateWideningBoundary(t *testing.T) {
	out := newTestEngine(t).Text("13:30 xyz")

	assert.Equal(t, []segmentView{
		{Kind: SegmentSpan, Text: "13:30", Display: "13:30"},
		{Kind: SegmentPlain, Text: " xyz"},
	}, view(out))
}

func TestAnnotateNonOverlap(t *testing.T) {
	e := newTestEngine(t)
	for _, text := range []string{
		"13:30 14:00 15:00",
		"at 9:15am on 21/03 or 21/03/2026 13:30",
		"2024-03-21T09:00 then 2024-03-21 09:00:01",
		"21 March 2026, 22 Mar, March 23 and 24 march",
		"on 01/02 at 03:04 at 05:06 on 07/08",
	} {
		out := e.Text(text)
		assertSegmentsCoverText(t, out)
		spans := out.Spans()
		for i := 1; i < len(spans); i++ {
			assert.Less(t, spans[i-1].End, spans[i].Start, text)
		}
	}
}

func TestAnnotateIdempotent(t *testing.T) {
	e := newTestEngine(t)
	text := "call at 13:30 on 21/03, then 2024-03-21 and 29/02"

	first := e.Text(text)
	second := e.Text(text)
	assert.Equal(t, first.Segments, second.Segments)

	s := e.NewSession()
	a := s.Annotate(text)
	b := s.Annotate(text)
	assert.Equal(t, a.Segments, b.Segments)
	assert.Equal(t, first.Segments, a.Segments)
}

func TestAnnotateUnresolvable(t *testing.T) {
	t.Run("strict only", func(t *testing.T) {
		e := newTestEngineWith(t, catalog.Builtin(), nil, resolve.WithLenient(false))

		var out *AnnotatedText
		require.NotPanics(t, func() { out = e.Text("meet 31/02 ok") })

		assert.Equal(t, []segmentView{{Kind: SegmentPlain, Text: "meet 31/02 ok"}}, view(out))
		assert.Equal(t, 1, out.Stats.Unparsable)
		require.Len(t, out.Diagnostics, 1)

		d := out.Diagnostics[0]
		assert.Equal(t, KindUnparsableSpan, d.Kind)
		assert.Equal(t, SeverityInfo, d.Severity)
		require.NotNil(t, d.Range)
		assert.Equal(t, 5, d.Range.Start.Offset)
		assert.True(t, errors.Is(&d, errors.ErrUnparsableSpan))
	})

	t.Run("with lenient fallback", func(t *testing.T) {
		e := newTestEngine(t)
		require.NotPanics(t, func() {
			out := e.Text("meet 31/02 ok")
			assertSegmentsCoverText(t, out)
		})
	})
}

func TestAnnotateMarkerWidening(t *testing.T) {
	e := newTestEngine(t)
	s := e.NewSession()

	first := s.Annotate("13:30")
	require.Len(t, first.Spans(), 1)
	assert.Equal(t, marker, first.Collapse(""))

	text := "at " + marker + " on 21/03"
	out := s.Annotate(text)

	assert.Equal(t, []segmentView{
		{Kind: SegmentSpan, Text: text, Display: "at 13:30 on 21/03"},
	}, view(out))
	assert.Equal(t, time.Date(2026, time.March, 21, 13, 30, 0, 0, time.UTC), *out.Segments[0].Time)
	assert.Equal(t, 1, out.Stats.Widened)
	assert.Equal(t, 1, out.Stats.Anchored)
	assert.Equal(t, "at 13:30 on 21/03", out.Rendered())
}

func TestAnnotateReconciliation(t *testing.T) {
	e := newTestEngine(t)
	s := e.NewSession()

	first := s.Annotate("13:30 and 14:00")
	require.Len(t, first.Spans(), 2)

	second := s.Annotate(first.Collapse(marker) + " and 15:00")
	spans := second.Spans()
	require.Len(t, spans, 3)
	assert.True(t, spans[0].Anchored)
	assert.Equal(t, "13:30", spans[0].Display)
	assert.Equal(t, marker, spans[0].Text)
	assert.True(t, spans[1].Anchored)
	assert.Equal(t, "14:00", spans[1].Display)
	assert.False(t, spans[2].Anchored)
	assert.Equal(t, "13:30 and 14:00 and 15:00", second.Rendered())

	third := s.Annotate("nothing left")
	assert.Empty(t, third.Spans())
	assert.Equal(t, 3, third.Stats.Stale)
	assert.Empty(t, s.Spans())
	assert.Equal(t, 3, s.Passes())
}

func TestAnnotateIdempotentWithQuestionMarker(t *testing.T) {
	e := newTestEngine(t, WithMarker("?"))
	s := e.NewSession()
	text := "see you at 13:30 on 21/03 ok?"

	first := s.Annotate(text)
	second := s.Annotate(text)

	require.Len(t, first.Spans(), 1)
	assert.Equal(t, view(first), view(second))
	assert.Equal(t, text, second.Rendered())
	assert.False(t, second.Spans()[0].Anchored)
}

func TestAnnotateMarkerCarriesSpanAcrossEdits(t *testing.T) {
	e := newTestEngine(t)
	s := e.NewSession()
	s.Annotate("13:30")

	// the only span collapsed and text typed around its marker
	out := s.Annotate("hello there " + marker)
	spans := out.Spans()
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Anchored)
	assert.Equal(t, 12, spans[0].Start)
	assert.Equal(t, "hello there 13:30", out.Rendered())
}

func TestAnnotateModalMay(t *testing.T) {
	e := newTestEngine(t)

	assert.Empty(t, e.Text("I may 5 go").Spans())

	spans := e.Text("due May 5, or 6 may").Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "May 5", spans[0].Text)
	assert.Equal(t, time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC), *spans[0].Time)

	spans = e.Text("on 12 march").Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "12 march", spans[0].Text)
}

func TestAnnotateDoesNotModifyPrevious(t *testing.T) {
	e := newTestEngine(t)
	_, prev := e.Annotate(nil, "13:30")
	require.Equal(t, 1, prev.Len())

	_, next := e.Annotate(prev, "no markers")
	assert.Equal(t, 1, prev.Len())
	assert.Equal(t, 0, next.Len())
}

func TestAnnotateTieBreak(t *testing.T) {
	c, err := catalog.New(
		catalog.Definition{ID: "hm", Grammar: "[HH]:[mm]"},
		catalog.Definition{ID: "hm_loose", Grammar: "[H]:[mm]"},
	)
	require.NoError(t, err)

	out := newTestEngineWith(t, c, nil).Text("at 13:30")
	require.Len(t, out.Spans(), 1)
	assert.Equal(t, "hm", out.Spans()[0].PatternID)

	out = newTestEngineWith(t, c, []Option{WithTieBreak(registry.TieLast)}).Text("at 13:30")
	require.Len(t, out.Spans(), 1)
	assert.Equal(t, "hm_loose", out.Spans()[0].PatternID)
}

func TestAnnotateWideningBudget(t *testing.T) {
	e := newTestEngine(t, WithMaxWideningCandidates(1))
	s := e.NewSession()
	s.Annotate("13:30")

	out := s.Annotate("at " + marker + " on 21/03")
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, KindWideningBudget, out.Diagnostics[0].Kind)
	assert.True(t, errors.Is(&out.Diagnostics[0], errors.ErrWideningBudget))
	assert.Len(t, out.Spans(), 2, "anchored 13:30 and on 21/03 stay separate")
}

func TestAnnotatePositions(t *testing.T) {
	out := newTestEngine(t).Text("first line\nthen at 13:30")

	spans := out.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, Position{Line: 2, Character: 5, Offset: 16}, spans[0].Range.Start)
	assert.Equal(t, Position{Line: 2, Character: 13, Offset: 24}, spans[0].Range.End)
}

type recordingObserver struct {
	mu    sync.Mutex
	stats []Stats
}

func (r *recordingObserver) ObserveAnnotation(stats Stats, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, stats)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestEngine(t, WithObserver(obs))

	e.Text("13:30")
	e.Text("nothing")

	require.Len(t, obs.stats, 2)
	assert.Equal(t, 1, obs.stats[0].Resolved)
	assert.Zero(t, obs.stats[1].Matches)
}

func TestEngineConcurrentUse(t *testing.T) {
	e := newTestEngine(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := e.NewSession()
			s.Annotate("13:30")
			out := s.Annotate("at " + marker + " on 21/03")
			assert.Equal(t, "at 13:30 on 21/03", out.Rendered())
		}()
	}
	wg.Wait()
}

func TestSession(t *testing.T) {
	e := newTestEngine(t)
	a, b := e.NewSession(), e.NewSession()
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())

	a.Annotate("13:30")
	assert.Len(t, a.Spans(), 1)
	assert.Empty(t, b.Spans())

	a.Reset()
	assert.Empty(t, a.Spans())
	assert.Zero(t, a.Passes())
}
