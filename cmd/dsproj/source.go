package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/fyrsmithlabs/dsproj/internal/registry"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"github.com/spf13/cobra"
)

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage project data sources",
	}
	cmd.AddCommand(newSourceAddCmd(a))
	cmd.AddCommand(newSourceRemoveCmd(a))
	cmd.AddCommand(newSourceInfoCmd(a))
	cmd.AddCommand(newSourceCheckoutCmd(a))
	return cmd
}

// addFlags are shared by the add subcommands.
type addFlags struct {
	name      string
	format    string
	skipCheck bool
}

func (f *addFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "source name (default: derived from the path or URL)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "dataset format")
	cmd.Flags().BoolVar(&f.skipCheck, "skip-check", false, "do not verify the source format")
	_ = cmd.MarkFlagRequired("format")
}

func newSourceAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a data source",
	}

	var local addFlags
	var copyData bool
	localCmd := &cobra.Command{
		Use:   "local <path>",
		Short: "Add a source from the local filesystem",
		Long: `Add a source from the local filesystem.

By default the source is linked: the project refers to the data where it is.
With --copy the data is copied under the project's sources directory.`,
		Example: `  dsproj source add local /data/voc2012 -f voc
  dsproj source add local ./labels.xml -n labels -f cvat --copy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := schema.StorageLinked
			if copyData {
				mode = schema.StorageCopied
			}
			return a.addSource(cmd, registry.AddRequest{
				Name:        local.name,
				URL:         args[0],
				Format:      local.format,
				StorageMode: mode,
				SkipVerify:  local.skipCheck,
			})
		},
	}
	local.register(localCmd)
	localCmd.Flags().BoolVar(&copyData, "copy", false, "copy the data into the project")

	var remote addFlags
	var branch string
	var checkout bool
	gitCmd := &cobra.Command{
		Use:   "git <url>",
		Short: "Add a source tracked in a git repository",
		Long: `Add a source tracked in a git repository.

The repository is cloned into the project's sources directory when
--checkout is given, or later with 'dsproj source checkout'.`,
		Example: `  dsproj source add git https://github.com/org/coco-mini.git -f coco --checkout
  dsproj source add git git@github.com:org/labels.git -n labels -f cvat -b v2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.addSource(cmd, registry.AddRequest{
				Name:        remote.name,
				URL:         args[0],
				Format:      remote.format,
				StorageMode: schema.StorageVCS,
				Branch:      branch,
				Checkout:    checkout,
				SkipVerify:  remote.skipCheck,
			})
		},
	}
	remote.register(gitCmd)
	gitCmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to track (default: remote HEAD)")
	gitCmd.Flags().BoolVar(&checkout, "checkout", false, "clone the repository now")

	cmd.AddCommand(localCmd, gitCmd)
	return cmd
}

func (a *app) addSource(cmd *cobra.Command, req registry.AddRequest) error {
	reg, err := a.openRegistry(cmd.Context())
	if err != nil {
		return err
	}
	src, err := reg.Add(cmd.Context(), req)
	if err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Added %s source %q (%s)", src.StorageMode, src.Name, src.Format)
	if src.StorageMode == schema.StorageVCS && !req.Checkout {
		printDim(cmd.OutOrStdout(), "Run 'dsproj source checkout -n %s' to fetch the data", src.Name)
	}
	return nil
}

func newSourceRemoveCmd(a *app) *cobra.Command {
	var name string
	var opts registry.RemoveOptions

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a data source",
		Long: `Remove a data source from the project.

The project configuration is updated first; the source's data directory is
deleted afterwards unless --keep-data is given. Linked data is never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.Remove(cmd.Context(), name, opts); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Removed source %q", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "source name")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "ignore missing sources and untrack errors")
	cmd.Flags().BoolVar(&opts.KeepData, "keep-data", false, "do not delete the source's data directory")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSourceInfoCmd(a *app) *cobra.Command {
	var name string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show data sources",
		Long: `Show data sources.

Without --name the source names are listed. With --verbose each source's
format, storage mode and URL are shown as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if name != "" {
				src, err := reg.Get(name)
				if err != nil {
					return err
				}
				printSource(w, reg, src, verbose)
				return nil
			}
			printSources(w, reg.List(), verbose)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "source name")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show details")

	return cmd
}

func printSources(w io.Writer, entries []registry.Entry, verbose bool) {
	if len(entries) == 0 {
		printDim(w, "No sources")
		return
	}
	if !verbose {
		for _, e := range entries {
			fmt.Fprintln(w, e.Name)
		}
		return
	}
	t := newTable(w, "NAME", "FORMAT", "STORAGE", "URL")
	for _, e := range entries {
		t.AppendRow([]any{e.Name, e.Source.Format, e.Source.StorageMode, logging.MaskURLCredentials(e.Source.URL)})
	}
	t.Render()
}

func printSource(w io.Writer, reg *registry.Registry, src *schema.Source, verbose bool) {
	t := newTable(w)
	t.AppendRow([]any{"name", src.Name})
	t.AppendRow([]any{"format", src.Format})
	t.AppendRow([]any{"storage", src.StorageMode})
	t.AppendRow([]any{"url", logging.MaskURLCredentials(src.URL)})
	if src.Branch != "" {
		t.AppendRow([]any{"branch", src.Branch})
	}
	if verbose {
		t.AppendRow([]any{"location", reg.Location(src)})
		for _, k := range slices.Sorted(maps.Keys(src.Options)) {
			t.AppendRow([]any{"options." + k, src.Options[k]})
		}
	}
	t.Render()
}

func newSourceCheckoutCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Clone a git-tracked source",
		Long: `Clone a git-tracked source whose checkout was deferred, then verify
its format. An existing checkout is left as it is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.Checkout(cmd.Context(), name); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Checked out source %q", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "source name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
