// Package engine builds an annotation engine from stamp's configuration
package engine

import (
	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/scan/annotate"
	"github.com/teranos/stamp/scan/catalog"
	"github.com/teranos/stamp/scan/registry"
	"github.com/teranos/stamp/scan/resolve"
	"github.com/teranos/stamp/version"
)

// Build assembles the catalog, resolver and engine described by cfg. extra
// options are applied last, so callers can add an observer or override the
// clock.
func Build(cfg *am.Config, extra ...annotate.Option) (*annotate.Engine, error) {
	c, err := catalog.Load(version.Version, cfg.Catalog.Paths...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}

	loc, err := geotime.LoadLocation(cfg.Resolver.Timezone)
	if err != nil {
		return nil, errors.Wrap(err, "resolver.timezone")
	}

	tieBreak, err := registry.ParseTieBreak(cfg.Engine.TieBreak)
	if err != nil {
		return nil, errors.Wrap(err, "engine.tie_break")
	}

	resolver := resolve.New(c,
		resolve.WithLocation(loc),
		resolve.WithLenient(cfg.Resolver.Lenient),
	)

	opts := []annotate.Option{
		annotate.WithCatalog(c),
		annotate.WithResolver(resolver),
		annotate.WithMarker(cfg.Engine.Placeholder),
		annotate.WithTieBreak(tieBreak),
		annotate.WithMaxWideningCandidates(cfg.Engine.MaxWideningCandidates),
		annotate.WithLogger(logger.ComponentLogger("scan")),
	}
	e := annotate.New(append(opts, extra...)...)

	logger.ComponentLogger("engine").Debugw("Engine built",
		logger.FieldCount, c.Len(),
		logger.FieldMarker, cfg.Engine.Placeholder,
		"timezone", loc.String(),
		"tie_break", tieBreak.String(),
		"lenient", cfg.Resolver.Lenient)
	return e, nil
}
