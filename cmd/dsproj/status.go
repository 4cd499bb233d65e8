package main

import (
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the worktree state of git-tracked sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			statuses, err := reg.Status(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(statuses) == 0 {
				printDim(w, "No git-tracked sources")
				return nil
			}
			t := newTable(w, "NAME", "BRANCH", "CHECKED OUT", "HEAD", "CLEAN")
			for _, st := range statuses {
				branch := st.Branch
				if branch == "" {
					branch = "(default)"
				}
				clean := "-"
				if st.CheckedOut {
					clean = yesNo(st.Clean)
				}
				t.AppendRow([]any{st.Name, branch, yesNo(st.CheckedOut), shortHash(st.Head), clean})
			}
			t.Render()
			return nil
		},
	}
}

func newCheckUpdatesCmd(a *app) *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "check-updates [names...]",
		Short: "Check git-tracked sources for upstream changes",
		Long: `Compare the checked out commit of each git-tracked source with the head
of its branch on the remote. Without names every tracked source is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			updates, err := reg.CheckUpdates(cmd.Context(), remote, args)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(updates) == 0 {
				printDim(w, "No git-tracked sources")
				return nil
			}
			t := newTable(w, "NAME", "LOCAL", "REMOTE", "STATUS")
			pending := 0
			for _, u := range updates {
				status := "up to date"
				switch {
				case u.Err != nil:
					status = "error: " + u.Err.Error()
				case u.UpdateAvailable:
					status = "update available"
					pending++
				}
				t.AppendRow([]any{u.Name, shortHash(u.Local), shortHash(u.Remote), status})
			}
			t.Render()
			if pending > 0 {
				printWarning(w, "%d source(s) have upstream changes", pending)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&remote, "remote", "r", "", "remote name (default: git.remote from config)")

	return cmd
}
