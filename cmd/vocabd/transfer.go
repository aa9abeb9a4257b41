package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/internal/study"
	"github.com/sky-flux/vocab/store"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import words from a YAML file",
	Long: `Import words from a YAML list. Each entry has a term, an optional
meaning and an optional state. Terms already in the catalog are skipped.
The output of "vocabd export" can be imported as is.

Example file:
  - term: serendipity
    meaning: a happy accident
  - term: petrichor`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export all words as YAML (stdout when FILE is omitted or -)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(importCmd, exportCmd)
}

// importEntry is one element of an import file.
type importEntry struct {
	Term    string             `yaml:"term"`
	Meaning string             `yaml:"meaning"`
	State   *vocab.ReviewState `yaml:"state,omitempty"`
}

// readImport decodes an import file into service entries.
func readImport(r io.Reader) ([]study.ImportEntry, error) {
	var raw []importEntry
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode import: %w", err)
	}
	entries := make([]study.ImportEntry, 0, len(raw))
	for i, e := range raw {
		if e.Term == "" {
			return nil, fmt.Errorf("entry %d: %w", i, store.ErrInvalidWord)
		}
		entries = append(entries, study.ImportEntry{Term: e.Term, Meaning: e.Meaning, State: e.State})
	}
	return entries, nil
}

// writeExport encodes words in the import file format.
func writeExport(w io.Writer, words []store.Word) error {
	if words == nil {
		words = []store.Word{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(words); err != nil {
		return err
	}
	return enc.Close()
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := readImport(f)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		added, skipped, err := a.svc.Import(ctx, entries)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d added, %d skipped\n", added, skipped)
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		words, err := a.svc.Words(ctx)
		if err != nil {
			return err
		}
		if len(args) == 0 || args[0] == "-" {
			return writeExport(cmd.OutOrStdout(), words)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := writeExport(f, words); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		a.log.Info("exported words", "count", len(words), "path", args[0])
		return nil
	})
}
