package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/folio/internal/config"
	"github.com/zjrosen/folio/internal/infrastructure/sqlite"
	"github.com/zjrosen/folio/internal/persist"
	"github.com/zjrosen/folio/internal/tab"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect and maintain stored session snapshots",
}

// displayNameWidth bounds the NAME column in snapshot tables.
const displayNameWidth = 40

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects with stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		projects, err := repo.Projects()
		if err != nil {
			return fmt.Errorf("listing snapshots: %w", err)
		}
		if len(projects) == 0 {
			fmt.Println("no snapshots stored")
			return nil
		}
		for _, p := range projects {
			fmt.Println(p)
		}
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show the stored snapshot for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		snap, err := repo.Load(args[0])
		if err != nil {
			var notFound *persist.SnapshotNotFoundError
			if errors.As(err, &notFound) {
				fmt.Printf("no snapshot for project %q\n", args[0])
				return nil
			}
			return fmt.Errorf("loading snapshot: %w", err)
		}

		fmt.Printf("project:      %s\n", snap.Project)
		fmt.Printf("saved at:     %s\n", snap.SavedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("active tab:   %s\n", orNone(snap.ActiveTab))
		fmt.Printf("active group: %s\n", orNone(snap.ActiveGroup))
		fmt.Printf("tabs:         %d\n\n", len(snap.Tabs))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tGROUP\tPINNED\tNAME")
		for _, t := range snap.Tabs {
			pinned := ""
			if t.Pinned {
				pinned = "pinned"
			}
			name := tab.TruncateTitle(t.DisplayName, displayNameWidth)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Kind, t.Group, pinned, name)
		}
		return w.Flush()
	},
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export the stored snapshot for a project as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		snap, err := repo.Load(args[0])
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}

		out, err := yaml.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML snapshot export into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		var snap persist.Snapshot
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("decoding snapshot: %w", err)
		}
		if snap.Project == "" {
			return fmt.Errorf("snapshot in %s has no project", args[0])
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.Save(&snap); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		fmt.Printf("imported snapshot for %q (%d tabs)\n", snap.Project, len(snap.Tabs))
		return nil
	},
}

var snapshotClearCmd = &cobra.Command{
	Use:   "clear <project>",
	Short: "Delete the stored snapshot for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.Delete(args[0]); err != nil {
			return fmt.Errorf("deleting snapshot: %w", err)
		}
		fmt.Printf("cleared snapshot for %q\n", args[0])
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
	snapshotCmd.AddCommand(snapshotClearCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func openRepository() (persist.Repository, error) {
	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	repo, err := sqlite.NewSnapshotRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store at %s: %w", dbPath, err)
	}
	return repo, nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
