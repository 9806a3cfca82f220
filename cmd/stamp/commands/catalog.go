package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/catalog"
	"github.com/teranos/stamp/scan/resolve"
	"github.com/teranos/stamp/version"
)

// CatalogCmd inspects pattern catalogs
var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and check pattern catalogs",
	Long: `Inspect the patterns stamp recognises and check user catalog files.

A user catalog is a TOML file of [[pattern]] tables, listed in catalog.paths:

  requires = ">= 0.4"

  [[pattern]]
  id = "compact"
  grammar = "[yyyy][MM][dd]T[HH][mm]"

Examples:
  stamp catalog list
  stamp catalog list --format toml > team.toml
  stamp catalog check team.toml`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the patterns in effect, in tie-break order",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Validate user catalog files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogCheck,
}

// sampleInstant renders each pattern's layout in listings
var sampleInstant = time.Date(2026, time.March, 21, 13, 30, 45, 0, time.UTC)

func init() {
	catalogListCmd.Flags().String("format", string(display.FormatTerminal), "Output format: terminal, json, yaml, toml")

	CatalogCmd.AddCommand(catalogListCmd)
	CatalogCmd.AddCommand(catalogCheckCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	format, err := display.FormatFromCommand(cmd,
		display.FormatTerminal, display.FormatJSON, display.FormatYAML, display.FormatTOML)
	if err != nil {
		return err
	}
	_, e, err := loadEngine()
	if err != nil {
		return err
	}
	c := e.Catalog()

	if format != display.FormatTerminal {
		file := catalog.File{Patterns: c.Definitions()}
		return display.Encode(cmd.OutOrStdout(), file, format, fmt.Sprintf("%d patterns", c.Len()))
	}

	rows := pterm.TableData{{"#", "ID", "Grammar", "Example"}}
	for _, p := range c.Patterns() {
		rows = append(rows, []string{
			strconv.Itoa(p.Index()),
			p.ID(),
			p.Grammar(),
			sampleInstant.Format(p.Format()),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func runCatalogCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		warnings, err := checkCatalogFile(path)
		if err != nil {
			failed++
			fmt.Fprintln(out, pterm.Error.Sprintf("%s: %v", path, err))
			if hint := errors.FlattenHints(err); hint != "" {
				fmt.Fprintln(out, pterm.Info.Sprint(hint))
			}
			continue
		}
		for _, w := range warnings {
			fmt.Fprintln(out, pterm.Warning.Sprintf("%s: %s", path, w))
		}
	}
	if failed > 0 {
		return errors.Newf("%d of %d catalog files failed", failed, len(args))
	}
	fmt.Fprintln(out, pterm.Success.Sprintf("%d catalog files valid", len(args)))
	return nil
}

func checkCatalogFile(path string) ([]string, error) {
	f, err := catalog.LoadFile(path, version.Version)
	if err != nil {
		return nil, err
	}
	if len(f.Patterns) == 0 {
		return nil, errors.WithHint(
			errors.Newf("no patterns"),
			"add at least one [[pattern]] table")
	}
	c, err := catalog.With(f.Patterns...)
	if err != nil {
		return nil, err
	}
	return shadowed(c, f.Patterns), nil
}

// shadowed lists user patterns whose own example is read by an earlier
// strict layout. Text such a pattern matches never resolves through its
// layout.
func shadowed(c *catalog.Catalog, defs []catalog.Definition) []string {
	r := resolve.New(c,
		resolve.WithLocation(time.UTC),
		resolve.WithNow(func() time.Time { return sampleInstant }))

	var warnings []string
	for _, def := range defs {
		p, ok := c.Lookup(def.ID)
		if !ok {
			continue
		}
		example := sampleInstant.Format(p.Format())
		res, err := r.ResolveStrict(example)
		if err != nil || res.PatternID == p.ID() {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"pattern %q: example %q resolves through earlier pattern %q", p.ID(), example, res.PatternID))
	}
	return warnings
}
