package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/version"
)

// useConfig points the CLI at a single config file for the test
func useConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	ConfigPath = path
	t.Cleanup(func() {
		ConfigPath = ""
		am.Reset()
	})
	return path
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "stamp", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().CountP("verbose", "v", "")
	root.AddCommand(AnnotateCmd, CatalogCmd, AmCmd, VersionCmd)
	resetFlags(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const utcConfig = "[resolver]\ntimezone = \"UTC\"\n"

func TestAnnotateArgs(t *testing.T) {
	useConfig(t, utcConfig)

	out, err := execute(t, "", "annotate", "--format", "json", "-p", "t", "see you at 13:30 on 21/03 ok?")
	require.NoError(t, err)

	var doc display.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Spans, 1)
	assert.Equal(t, "at 13:30 on 21/03", doc.Spans[0].Text)
	assert.Equal(t, "13:30", doc.Spans[0].Formatted)
}

func TestAnnotateStdinMarkup(t *testing.T) {
	useConfig(t, utcConfig)

	out, err := execute(t, "standup at 13:30\n", "annotate", "--format", "markup", "-p", "t")
	require.NoError(t, err)
	assert.Regexp(t, `^standup <t:-?\d+:t>\n$`, out)
}

func TestAnnotateFiles(t *testing.T) {
	useConfig(t, utcConfig)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("13:30 and 14:00"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("nothing to see"), 0o644))

	out, err := execute(t, "", "annotate", "--file", a, "--file", b, "--json")
	require.NoError(t, err)

	var docs []FileDocument
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, a, docs[0].File)
	assert.Len(t, docs[0].Spans, 2)
	assert.Equal(t, b, docs[1].File)
	assert.Empty(t, docs[1].Spans)

	out, err = execute(t, "", "annotate", "--file", a, "--file", b, "--format", "markup")
	require.NoError(t, err)
	assert.Contains(t, out, "==> "+a+" <==")
	assert.Contains(t, out, "==> "+b+" <==\nnothing to see")
}

func TestAnnotateInputErrors(t *testing.T) {
	useConfig(t, utcConfig)

	_, err := execute(t, "", "annotate", "--file", "x.txt", "13:30")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = execute(t, "", "annotate", "--format", "html", "13:30")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = execute(t, "", "annotate", "--file", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestAnnotateRejectsInvalidConfig(t *testing.T) {
	useConfig(t, "[engine]\ntie_break = \"first\"\n")

	_, err := execute(t, "", "annotate", "13:30")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestCatalogCheck(t *testing.T) {
	useConfig(t, utcConfig)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(good, []byte(`
[[pattern]]
id = "compact"
grammar = "[yyyy][MM][dd]T[HH][mm]"
`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`
[[pattern]]
id = "typo"
gramar = "[HH]h[mm]"
`), 0o644))

	out, err := execute(t, "", "catalog", "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 catalog files valid")

	out, err = execute(t, "", "catalog", "check", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "unknown keys")
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestCatalogCheckShadowed(t *testing.T) {
	useConfig(t, utcConfig)
	path := filepath.Join(t.TempDir(), "dates.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[pattern]]
id = "ymd"
grammar = "[yyyy]-[MM]-[dd]"

[[pattern]]
id = "compact"
grammar = "[yyyy][MM][dd]T[HH][mm]"
`), 0o644))

	out, err := execute(t, "", "catalog", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, `pattern "ymd": example "2026-03-21" resolves through earlier pattern "iso_date"`)
	assert.NotContains(t, out, `pattern "compact"`)
	assert.Contains(t, out, "1 catalog files valid")
}

func TestCatalogList(t *testing.T) {
	useConfig(t, utcConfig)

	out, err := execute(t, "", "catalog", "list", "--format", "json")
	require.NoError(t, err)

	var file struct {
		Patterns []struct {
			ID string `json:"id"`
		} `json:"patterns"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &file))
	require.NotEmpty(t, file.Patterns)
	assert.Equal(t, "iso_datetime_seconds", file.Patterns[0].ID)

	out, err = execute(t, "", "catalog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "time_hm")
	assert.Contains(t, out, "13:30")
}

func TestAmShow(t *testing.T) {
	useConfig(t, "[engine]\ntie_break = \"last\"\n")

	out, err := execute(t, "", "am", "show", "--format", "json")
	require.NoError(t, err)

	var cfg am.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "last", cfg.Engine.TieBreak)

	out, err = execute(t, "", "am", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# stamp configuration\n"))
}

func TestAmValidate(t *testing.T) {
	useConfig(t, utcConfig)
	out, err := execute(t, "", "am", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	useConfig(t, "[resolver]\ntimezone = \"Mars/Olympus\"\n")
	_, err = execute(t, "", "am", "validate")
	require.Error(t, err)
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "", "version", "--json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}
