// cmd/grit/main.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grit/internal/commit"
	"grit/internal/diff"
	griterrors "grit/internal/errors"
	"grit/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "grit",
	Short: "Grit is a minimal content-addressable version control system",
	Long: `Grit stores file snapshots and commit history in a local repository
directory, using content hashes as object identifiers, and reconstructs
line-level diffs between successive commits.`,
	SilenceUsage: true,
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Grit repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			if err := repo.Initialize(dir); err != nil {
				if griterrors.IsType(err, griterrors.ErrorTypeAlreadyInitialized) {
					// Benign: re-initialization never destroys data
					logger, _ := zap.NewDevelopment()
					logger.Info("repository already initialized", zap.String("root", dir))
					fmt.Println("Reinitialized existing Grit repository in", dir)
					return nil
				}
				return fmt.Errorf("initializing repository: %w", err)
			}

			fmt.Println("Initialized empty Grit repository in", dir)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add [files...]",
		Short: "Stage file contents for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			for _, path := range args {
				if err := r.Add(path); err != nil {
					return fmt.Errorf("adding %s: %w", path, err)
				}
				fmt.Printf("added %s\n", path)
			}

			return nil
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit [message]",
		Short: "Record the staged files as a new commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			hash, err := r.Commit(args[0])
			if err != nil {
				if griterrors.IsType(err, griterrors.ErrorTypeNothingToCommit) {
					fmt.Println("nothing to commit (staging index is empty)")
					return nil
				}
				return fmt.Errorf("committing: %w", err)
			}

			fmt.Printf("[%s] %s\n", hash[:8], args[0])
			return nil
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			yellow := color.New(color.FgYellow).SprintFunc()

			count := 0
			err = r.Graph.Walk(func(hash string, c *commit.Commit) error {
				fmt.Printf("commit %s\nDate:   %s\n\n    %s\n\n", yellow(hash), c.Timestamp, c.Message)
				count++
				return nil
			})
			if err != nil {
				// History already printed stands; the break is reported
				return fmt.Errorf("walking history: %w", err)
			}

			if count == 0 {
				fmt.Println("no commits yet")
			}
			return nil
		},
	}

	var showCmd = &cobra.Command{
		Use:   "show [commit]",
		Short: "Show the changes a commit introduced over its parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			c, diffs, err := r.Show(args[0])
			if err != nil {
				return fmt.Errorf("showing commit: %w", err)
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("commit %s\nDate:   %s\n\n    %s\n\n", yellow(args[0]), c.Timestamp, c.Message)

			if c.Parent == "" {
				fmt.Println("no prior version to compare")
				return nil
			}

			cyan := color.New(color.FgCyan)
			for _, fd := range diffs {
				cyan.Printf("diff --grit a/%s b/%s\n", fd.Path, fd.Path)
				if fd.New {
					fmt.Println("(new file)")
					continue
				}
				printColoredDiff(fd.Result)
			}

			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			changes, err := r.Status()
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			if len(changes) == 0 {
				fmt.Println("No changes detected (working tree clean)")
				return nil
			}

			red := color.New(color.FgRed).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			blue := color.New(color.FgBlue).SprintFunc()

			fmt.Printf("\nChanges in working tree:\n\n")
			for _, c := range changes {
				switch c.Type {
				case "modify":
					fmt.Printf("\t%s %s\n", yellow("M"), c.Path)
				case "untracked":
					fmt.Printf("\t%s %s\n", blue("?"), c.Path)
				case "delete":
					fmt.Printf("\t%s %s\n", red("D"), c.Path)
				}
			}
			fmt.Println()

			return nil
		},
	}

	var verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Check every stored object against its hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			corrupt, err := r.Verify()
			if err != nil {
				return fmt.Errorf("verifying objects: %w", err)
			}

			if len(corrupt) == 0 {
				fmt.Println("All objects verified")
				return nil
			}

			for _, hash := range corrupt {
				fmt.Printf("corrupt: %s\n", hash)
			}
			return fmt.Errorf("%d corrupt object(s)", len(corrupt))
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch the worktree and auto-stage changed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			w, err := repo.NewWatcher(r)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer w.Close()

			fmt.Println("Watching for changes (Ctrl-C to stop)")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			return nil
		},
	}

	var archiveCmd = &cobra.Command{
		Use:   "archive [commit] [output]",
		Short: "Export a commit snapshot as a zstd-compressed tar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.Archive(args[0], args[1]); err != nil {
				return fmt.Errorf("archiving commit: %w", err)
			}

			fmt.Printf("wrote %s\n", args[1])
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(archiveCmd)
}

func openRepo() (*repo.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	r, err := repo.Open(cwd)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func printColoredDiff(result *diff.Result) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	for _, seg := range result.Segments {
		text := seg.Text
		if len(text) == 0 || text[len(text)-1] != '\n' {
			text += "\n"
		}

		switch seg.Kind {
		case diff.Added:
			added.Printf("+ %s", text)
		case diff.Removed:
			removed.Printf("- %s", text)
		default:
			fmt.Printf("  %s", text)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
