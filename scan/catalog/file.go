package catalog

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/stamp/errors"
)

// devVersion is the version string of untagged builds; version constraints
// are not enforced against it.
const devVersion = "dev"

// File is the on-disk form of a user catalog
type File struct {
	Requires string       `toml:"requires,omitempty" json:"requires,omitempty" yaml:"requires,omitempty"`
	Patterns []Definition `toml:"pattern" json:"patterns" yaml:"patterns"`
}

// LoadFile decodes a user catalog file. Keys the decoder does not recognise
// are reported as malformed so that typos do not silently drop a pattern.
func LoadFile(path, stampVersion string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode catalog %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrMalformedPattern, "catalog %s: unknown keys %s", path, strings.Join(keys, ", ")),
			"each [[pattern]] accepts id, grammar and format")
	}
	if err := f.CheckVersion(stampVersion); err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return &f, nil
}

// CheckVersion verifies the file's requires constraint against the running
// version. Empty constraints and dev builds always pass.
func (f *File) CheckVersion(stampVersion string) error {
	if f.Requires == "" || stampVersion == "" || stampVersion == devVersion {
		return nil
	}
	constraint, err := semver.NewConstraint(f.Requires)
	if err != nil {
		return errors.Wrapf(errors.ErrCatalogVersion, "invalid constraint %q: %v", f.Requires, err)
	}
	current, err := semver.NewVersion(stampVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCatalogVersion, "invalid stamp version %q: %v", stampVersion, err)
	}
	if !constraint.Check(current) {
		return errors.Wrapf(errors.ErrCatalogVersion, "requires stamp %s, but running %s", f.Requires, stampVersion)
	}
	return nil
}

// Load builds a catalog of the built-in patterns followed by the patterns
// of every file at paths, in order
func Load(stampVersion string, paths ...string) (*Catalog, error) {
	var extra []Definition
	for _, path := range paths {
		f, err := LoadFile(path, stampVersion)
		if err != nil {
			return nil, err
		}
		extra = append(extra, f.Patterns...)
	}
	return With(extra...)
}
