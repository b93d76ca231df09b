package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droidtrace/tracediff/diverge/pipeline"
)

var (
	jobConfigPath string // Path to the job config (YAML or JSON)
	runWorkers    int    // Overrides process_num when > 0
)

// runCmd compares every device/emulator trace pair found under the job's directories
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compare all device/emulator trace pairs described by a job config",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := LoadJobConfig(jobConfigPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if runWorkers > 0 {
			cfg.ProcessNum = runWorkers
		}
		job, err := cfg.Job()
		if err != nil {
			logrus.Fatalf("Invalid job config %s: %v", jobConfigPath, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manifest, err := pipeline.Run(ctx, job)
		if err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		if manifest.Failed > 0 {
			logrus.Warnf("%d of %d comparisons failed; see %s", manifest.Failed, len(manifest.Pairs), pipeline.ManifestFile)
		}
	},
}

func init() {
	runCmd.Flags().StringVarP(&jobConfigPath, "config", "c", "", "path/to/trace_comparator_config.yaml (JSON accepted)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Number of parallel comparisons (overrides process_num)")
	_ = runCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
}
