// Package commands implements the stamp CLI
package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/internal/engine"
	"github.com/teranos/stamp/scan/annotate"
)

// ConfigPath, when set by --config, replaces the configuration cascade with
// a single file
var ConfigPath string

// LoadConfig loads and validates the configuration in effect
func LoadConfig() (*am.Config, error) {
	var (
		cfg *am.Config
		err error
	)
	if ConfigPath != "" {
		cfg, err = am.LoadFromFile(ConfigPath)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "invalid configuration"),
			"run 'stamp am where' to see which file set it")
	}
	return cfg, nil
}

// activeConfigFile is the file a config watcher should follow
func activeConfigFile() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	return am.GetViper().ConfigFileUsed()
}

func loadEngine() (*am.Config, *annotate.Engine, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, e, nil
}

func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// addRenderFlags registers the flags shared by commands that print
// annotated text
func addRenderFlags(cmd *cobra.Command, formats []display.Format) {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	cmd.Flags().String("format", string(formats[0]), "Output format: "+strings.Join(names, ", "))
	cmd.Flags().Bool("json", false, "Shortcut for --format json")
	cmd.Flags().StringP("present", "p", "", "Presentation code for spans: t, T, d, D, f, F, R")
	cmd.Flags().Bool("carets", false, "Underline spans on their own line")
	cmd.Flags().String("tz", "", "Present instants in this zone (default: resolver.timezone)")
}

func renderOptions(cmd *cobra.Command, cfg *am.Config) (display.Options, error) {
	code, _ := cmd.Flags().GetString("present")
	carets, _ := cmd.Flags().GetBool("carets")
	tz, _ := cmd.Flags().GetString("tz")
	if tz == "" {
		tz = cfg.Resolver.Timezone
	}
	loc, err := geotime.LoadLocation(tz)
	if err != nil {
		return display.Options{}, err
	}
	return display.Options{
		Present:  code,
		Carets:   carets,
		Now:      time.Now(),
		Location: loc,
	}, nil
}
