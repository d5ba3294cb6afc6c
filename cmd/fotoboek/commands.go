package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/media"
	"fotoboek/internal/worker"

	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Register new media files and create their tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.registrar.Scan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d files: %d added, %d failed (%v)\n",
				result.Total, result.Added, result.Failed, result.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <relative-path>...",
		Short: "Register files by their path below the media directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			for _, rel := range args {
				file, err := a.registrar.Register(cmd.Context(), rel)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s as file %d (%s)\n", file.RelPath, file.ID, file.FileType)
			}
			return nil
		},
	}
}

func newTasksCmd() *cobra.Command {
	var fileID int64

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List pending tasks in claim order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var tasks []database.Task
			if fileID > 0 {
				tasks, err = a.db.TasksForFile(cmd.Context(), fileID)
			} else {
				tasks, err = a.db.ListTasks(cmd.Context())
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tMODULE\tPRIORITY\tLANE\tATTEMPTS\tSTARTED")
			for _, t := range tasks {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\t%d\t%s\n",
					t.ID, t.FileID, t.Module, t.Priority, lane(t.MaxWorkerID), t.Attempts, started(&t))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64Var(&fileID, "file-id", 0, "only list tasks of this file")
	return cmd
}

func lane(maxWorkerID int) string {
	if maxWorkerID == database.UnrestrictedLane {
		return "any"
	}
	return fmt.Sprintf("<=%d", maxWorkerID)
}

func started(t *database.Task) string {
	if t.NeverStarted() {
		return "-"
	}
	return t.WorkStartedAt.UTC().Format(time.RFC3339)
}

func newWorkCmd() *cobra.Command {
	var (
		once     bool
		workerID int
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Run task workers without the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			// libvips is released at process exit.
			if err := media.InitVips(); err != nil {
				return err
			}

			if workers <= 0 {
				workers = a.cfg.NumWorkerThreads
			}
			scheduler := worker.NewScheduler(a.db, a.dispatcher, worker.Config{
				Workers:      workers,
				LockTimeout:  a.cfg.TaskLockTimeout,
				IdleInterval: a.cfg.IdleInterval,
			})

			if !once {
				return scheduler.Run(cmd.Context())
			}

			worked, err := scheduler.RunOnce(cmd.Context(), workerID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !worked {
				fmt.Fprintln(out, "no workable task")
				return nil
			}
			remaining, err := a.db.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "processed one task, %d pending%s\n", len(remaining), summary(remaining))
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "claim and run a single task, then exit")
	cmd.Flags().IntVar(&workerID, "worker-id", 0, "worker id used by --once (0 may claim transcodes)")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of workers (default NUM_WORKER_THREADS)")
	return cmd
}

func summary(tasks []database.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	counts := make(map[string]int)
	var order []string
	for _, t := range tasks {
		if counts[t.Module] == 0 {
			order = append(order, t.Module)
		}
		counts[t.Module]++
	}
	parts := make([]string, 0, len(order))
	for _, m := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", m, counts[m]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
