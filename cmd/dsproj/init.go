package main

import (
	"github.com/fyrsmithlabs/dsproj/internal/project"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var opts project.InitOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a new dataset project",
		Long: `Create a new dataset project.

This writes the project configuration file and the tool-managed environment
directory. Default directory names come from the project section of the
user configuration.`,
		Example: `  # Initialize in the current directory
  dsproj init

  # Initialize in a new directory with an explicit name
  dsproj init ./coco-experiments --name coco`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.projectDir
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				dir = "."
			}

			pc := a.cfg.Project
			opts.Layout = schema.Layout{
				SourcesDir: pc.SourcesDir,
				ModelsDir:  pc.ModelsDir,
				PluginsDir: pc.PluginsDir,
				DatasetDir: pc.DatasetDir,
			}
			p, err := a.store().Init(cmd.Context(), dir, opts)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Initialized project %q in %s", p.Name, p.Layout.ProjectDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "project name (default: directory name)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing project")

	return cmd
}
