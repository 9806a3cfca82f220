package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage stamp configuration",
	Long: `am: manage stamp configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/stamp/am.toml)
3. User config (~/.stamp/am.toml)
4. Project config (nearest am.toml, searching up from the working directory)
5. Environment variables (STAMP_* prefix, e.g. STAMP_ENGINE_TIE_BREAK)

Examples:
  stamp am show                    # Show current configuration
  stamp am show --format json      # Show configuration in JSON format
  stamp am get engine.tie_break    # Get specific config value
  stamp am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the stamp configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., engine.tie_break, server.port)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate the configuration and build the engine it describes, including user catalogs",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which files were checked.

Lists every candidate file in order of precedence, whether it exists, and
the settings each source contributed.`,
	RunE: runAmWhere,
}

func init() {
	amShowCmd.Flags().String("format", string(display.FormatTOML), "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	format, err := display.FormatFromCommand(cmd, display.FormatTOML, display.FormatJSON, display.FormatYAML)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	return display.Encode(cmd.OutOrStdout(), cfg, format, "stamp configuration")
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(
			errors.NewNotFoundError("configuration key %q not found", key),
			"run 'stamp am show' to list keys")
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	if _, _, err := loadEngine(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprint("Configuration is valid"))
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	for i, f := range am.CandidateFiles() {
		state := "missing"
		if f.Exists {
			state = "found"
		}
		fmt.Fprintf(out, "  %d. [%-7s]  %s (%s)\n", i+2, strings.ToUpper(string(f.Source)), f.Path, state)
	}
	fmt.Fprintf(out, "  %d. [ENV]      %s_* environment variables\n", len(am.CandidateFiles())+2, am.EnvPrefix)
	if zone, err := geotime.DetectLocalTimezone(); err == nil {
		fmt.Fprintf(out, "\nLocal timezone: %s (used when resolver.timezone is empty)\n", zone)
	}
	fmt.Fprintln(out)

	type group struct {
		source   am.ConfigSource
		path     string
		settings []am.SettingInfo
	}
	groups := map[string]*group{}
	for _, setting := range intro.Settings {
		key := setting.SourcePath
		if key == "" || setting.Source == am.SourceEnvironment {
			key = string(setting.Source)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{source: setting.Source, path: setting.SourcePath}
			groups[key] = g
		}
		g.settings = append(g.settings, setting)
	}

	order := []am.ConfigSource{am.SourceDefault, am.SourceSystem, am.SourceUser, am.SourceProject, am.SourceEnvironment}
	fmt.Fprintln(out, "Active configuration:")
	for _, source := range order {
		var selected []*group
		for _, g := range groups {
			if g.source == source {
				selected = append(selected, g)
			}
		}
		sort.Slice(selected, func(i, j int) bool { return selected[i].path < selected[j].path })

		for _, g := range selected {
			switch {
			case source == am.SourceEnvironment:
				fmt.Fprintf(out, "\n%s: %d settings from environment variables\n", source, len(g.settings))
			case g.path != "":
				fmt.Fprintf(out, "\n%s: %d settings from %s\n", source, len(g.settings), g.path)
			default:
				fmt.Fprintf(out, "\n%s: %d settings\n", source, len(g.settings))
			}
			sort.Slice(g.settings, func(i, j int) bool { return g.settings[i].Key < g.settings[j].Key })
			for _, setting := range g.settings {
				value := fmt.Sprintf("%v", setting.Value)
				if len(value) > 50 {
					value = value[:47] + "..."
				}
				fmt.Fprintf(out, "  %s = %s\n", setting.Key, value)
			}
		}
	}
	return nil
}
