package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list <url>",
		Aliases: []string{"ls"},
		Short:   "List the entries of a remote archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			long, _ := cmd.Flags().GetBool("long")
			return a.list(cmd, args[0], long)
		},
	}
	cmd.Flags().BoolP("long", "l", false, "Also show method, compressed size and CRC-32")
	return cmd
}

func (a *app) list(cmd *cobra.Command, url string, long bool) error {
	ar, err := a.open(cmd.Context(), url)
	if err != nil {
		return err
	}
	defer ar.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if long {
		fmt.Fprintln(tw, "INDEX\tSIZE\tPACKED\tMETHOD\tCRC32\tMODIFIED\tNAME")
	} else {
		fmt.Fprintln(tw, "INDEX\tSIZE\tMODIFIED\tNAME")
	}
	for _, e := range ar.Entries() {
		size := humanize.Bytes(uint64(e.UncompressedSize))
		if e.IsDir() {
			size = "-"
		}
		modified := e.Modified.Format(time.DateTime)
		if long {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%08x\t%s\t%s\n", e.Index, size,
				humanize.Bytes(uint64(e.CompressedSize)), e.Method, e.CRC32, modified, e.Name)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Index, size, modified, e.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if c := ar.Comment(); c != "" && long {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", c)
	}
	a.log.Debug().
		Int("entries", ar.Len()).
		Str("size", humanize.Bytes(uint64(ar.Size()))).
		Msg("Listed archive")
	return nil
}
