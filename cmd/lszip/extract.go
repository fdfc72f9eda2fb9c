package main

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	all    bool
	stdout bool
}

func newExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract <url> [index...]",
		Aliases: []string{"x"},
		Short:   "Extract entries of a remote archive by index",
		Long: "Extract the entries with the given indices, as shown by list, " +
			"into the output directory. Directories are skipped with --all.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.extract(cmd, args[0], args[1:], loadExtractOptions(cmd))
		},
	}
	f := cmd.Flags()
	f.Bool("all", false, "Extract every file entry")
	f.Bool("stdout", false, "Write the single selected entry to standard output once it has been verified")
	f.StringP("output", "o", "", "Output directory")
	f.IntP("jobs", "j", 0, "Number of entries to extract in parallel")
	f.Bool("overwrite", false, "Replace existing files")
	return cmd
}

func loadExtractOptions(cmd *cobra.Command) extractOptions {
	all, _ := cmd.Flags().GetBool("all")
	stdout, _ := cmd.Flags().GetBool("stdout")
	return extractOptions{all: all, stdout: stdout}
}

// applyExtractFlags copies the extract flags that were set into the config.
func (a *app) applyExtractFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("output") {
		a.cfg.OutputDir, _ = f.GetString("output")
	}
	if f.Changed("jobs") {
		a.cfg.Jobs, _ = f.GetInt("jobs")
	}
	if f.Changed("overwrite") {
		a.cfg.Overwrite, _ = f.GetBool("overwrite")
	}
	return a.cfg.Validate()
}

func (a *app) extract(cmd *cobra.Command, url string, args []string, opts extractOptions) error {
	if err := a.applyExtractFlags(cmd); err != nil {
		return err
	}
	if opts.all == (len(args) > 0) {
		return errors.New("give either entry indices or --all")
	}
	indices, err := parseIndices(args)
	if err != nil {
		return err
	}
	if opts.stdout && len(indices) != 1 {
		return errors.New("--stdout needs exactly one index")
	}

	ar, err := a.open(cmd.Context(), url)
	if err != nil {
		return err
	}
	defer ar.Close()

	if opts.stdout {
		return extractVerified(cmd.Context(), ar, indices[0], cmd.OutOrStdout())
	}
	if opts.all {
		for _, e := range ar.Entries() {
			if !e.IsDir() {
				indices = append(indices, e.Index)
			}
		}
	}

	out := &outputDir{root: a.cfg.OutputDir, overwrite: a.cfg.Overwrite}
	results := ar.ExtractBatch(cmd.Context(), indices, out.open, a.cfg.Jobs)

	var failed int
	var total int64
	for _, r := range results {
		if r.Err != nil {
			failed++
			a.log.Error().Err(r.Err).Int("index", r.Index).Str("name", r.Name).Msg("Not extracted")
			continue
		}
		total += r.Written
		a.log.Info().Int("index", r.Index).Str("name", r.Name).
			Str("size", humanize.Bytes(uint64(r.Written))).Msg("Extracted")
	}
	if failed > 0 {
		return errors.Errorf("%d of %d entries failed", failed, len(results))
	}
	a.log.Info().Int("entries", len(results)).
		Str("size", humanize.Bytes(uint64(total))).Msg("Done")
	return nil
}

func parseIndices(args []string) ([]int, error) {
	indices := make([]int, 0, len(args))
	for _, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid entry index %q", s)
		}
		indices = append(indices, n)
	}
	return indices, nil
}
