package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droidtrace/tracediff/diverge/report"
)

var (
	summarizeTop  int  // Number of diverging methods listed
	summarizeJSON bool // Emit JSON instead of text
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <artifact-dir>",
	Short: "Aggregate the comparison artifacts of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		s, err := report.SummarizeDir(args[0])
		if err != nil {
			logrus.Fatalf("Summary failed: %v", err)
		}
		if summarizeJSON {
			data, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				logrus.Fatalf("JSON marshal failed: %v", err)
			}
			fmt.Println(string(data))
			return
		}
		s.Print(os.Stdout, summarizeTop)
	},
}

func init() {
	summarizeCmd.Flags().IntVar(&summarizeTop, "top", 20, "Diverging methods to list (0 = all)")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "Print the summary as JSON")

	rootCmd.AddCommand(summarizeCmd)
}
