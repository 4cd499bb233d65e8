package main

import (
	"github.com/fyrsmithlabs/dsproj/internal/vcs"
	"github.com/spf13/cobra"
)

func newTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <paths...>",
		Short: "Stage project files in the project's git repository",
		Long: `Stage project files in the git repository that holds the project.

Paths must be inside the project directory. Directories are staged
recursively. Nothing is committed.`,
		Example: `  dsproj track config.yaml
  dsproj track dataset/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := a.loadProject()
			if err != nil {
				return err
			}
			repo, err := vcs.OpenProjectRepo(p.Layout.ProjectDir, a.logger)
			if err != nil {
				return err
			}
			staged, err := repo.Add(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, path := range staged {
				printSuccess(cmd.OutOrStdout(), "Tracking %s", path)
			}
			return nil
		},
	}
}
