package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"shopicsv/app/fileloader"
	"shopicsv/app/rowstore"
	"shopicsv/app/settings"
	"shopicsv/app/snapshot"
	"shopicsv/app/timestamps"

	"github.com/spf13/cobra"
)

type openFunc func(ctx context.Context, backend, dir string) (snapshot.Backend, error)

type cli struct {
	open    openFunc
	out     io.Writer
	now     func() time.Time
	backend string
	dir     string
}

func newRootCmd(open openFunc, out io.Writer, now func() time.Time) *cobra.Command {
	c := &cli{open: open, out: out, now: now}

	rootCmd := &cobra.Command{
		Use:          "shopicsv-snapshot",
		Short:        "Inspect and manage the stored ShopiCSV session",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&c.backend, "backend", "", "Snapshot backend: file, dynamodb or memory (default: from settings)")
	rootCmd.PersistentFlags().StringVar(&c.dir, "dir", "", "Snapshot directory for the file backend (default: from settings)")

	rootCmd.AddCommand(c.showCmd(), c.exportCmd(), c.importCmd(), c.clearCmd(), c.columnsCmd())
	return rootCmd
}

func (c *cli) stores(ctx context.Context) (*snapshot.Store, *snapshot.ColumnPrefs, error) {
	backend, err := c.open(ctx, c.backend, c.dir)
	if err != nil {
		return nil, nil, err
	}
	return snapshot.NewStore(backend), snapshot.NewColumnPrefs(backend), nil
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Describe the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, prefs, err := c.stores(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := store.Read(cmd.Context())
			if err != nil {
				return err
			}
			if snap == nil {
				fmt.Fprintln(c.out, "No stored session")
				return nil
			}
			fmt.Fprintf(c.out, "Name:          %s\n", snap.Name)
			fmt.Fprintf(c.out, "Size:          %d bytes\n", snap.Size)
			if snap.LastModified > 0 {
				fmt.Fprintf(c.out, "Last modified: %s\n", timestamps.FormatLocale(time.UnixMilli(snap.LastModified)))
			}
			saved := snap.SavedAt
			if snap.SavedAtMillis > 0 {
				saved += " (" + timestamps.Ago(time.UnixMilli(snap.SavedAtMillis), c.now()) + ")"
			}
			fmt.Fprintf(c.out, "Saved at:      %s\n", saved)
			fmt.Fprintf(c.out, "Rows:          %d (%d data rows)\n", len(snap.Content), rowstore.CountDataRows(snap.Content))
			if cols, err := prefs.Load(cmd.Context()); err == nil {
				fmt.Fprintf(c.out, "Columns:       %s\n", joinInts(cols))
			}
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored session as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := c.stores(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := store.Read(cmd.Context())
			if err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("no stored session to export")
			}
			records := make([][]string, len(snap.Content))
			for i, r := range snap.Content {
				records[i] = r.Data
			}

			if outputPath == "-" {
				return fileloader.WriteCSV(c.out, records)
			}
			if outputPath == "" {
				outputPath = fileloader.DownloadName(settings.GetEffectiveSettings().DownloadPrefix, snap.Name)
			}
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			w := bufio.NewWriter(f)
			if err := fileloader.WriteCSV(w, records); err != nil {
				f.Close()
				return err
			}
			if err := w.Flush(); err != nil {
				f.Close()
				return fmt.Errorf("failed to write output: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(c.out, "Exported %d rows to %s\n", len(records), outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file, - for stdout (default: <prefix>_<name>)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var jsonPath string
	cmd := &cobra.Command{
		Use:   "import <file or glob>",
		Short: "Store a translation file as the session to restore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := fileloader.Discover(args[0])
			if err != nil {
				return err
			}
			switch len(matches) {
			case 0:
				return fmt.Errorf("no translation file matches %s", args[0])
			case 1:
			default:
				return fmt.Errorf("%s matches %d files: %s", args[0], len(matches), strings.Join(matches, ", "))
			}

			res, err := fileloader.Load(matches[0], fileloader.Options{JSONPath: jsonPath})
			if err != nil {
				return err
			}
			if len(res.Records) == 0 {
				return fmt.Errorf("%s is empty", res.Name)
			}

			store, _, err := c.stores(cmd.Context())
			if err != nil {
				return err
			}
			now := c.now()
			snap := snapshot.Snapshot{
				Content:       rowstore.FromRecords(res.Records),
				Name:          res.Name,
				Size:          res.Size,
				SavedAt:       timestamps.FormatLocale(now),
				SavedAtMillis: now.UnixMilli(),
			}
			if !res.LastModified.IsZero() {
				snap.LastModified = res.LastModified.UnixMilli()
			}
			if err := store.Write(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Stored %s (%d rows)\n", res.Name, len(snap.Content))
			return nil
		},
	}
	cmd.Flags().StringVar(&jsonPath, "json-path", "", "JSONPath selecting the records of a JSON file")
	return cmd
}

func (c *cli) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete the stored session without --yes")
			}
			store, _, err := c.stores(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Stored session deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func (c *cli) columnsCmd() *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show or change the visible column preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, prefs, err := c.stores(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("set") {
				cols, err := parseInts(set)
				if err != nil {
					return err
				}
				if err := prefs.Save(cmd.Context(), cols); err != nil {
					return err
				}
			}
			cols, err := prefs.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, joinInts(cols))
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "Comma separated column indexes, e.g. 2,5,6")
	return cmd
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid column index %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
