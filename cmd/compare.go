package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droidtrace/tracediff/diverge"
	"github.com/droidtrace/tracediff/diverge/pipeline"
)

// compareOptions holds the flags of the compare command.
type compareOptions struct {
	devicePath      string
	emulatorPath    string
	outPath         string // empty = stdout
	predecoded      bool
	cacheDecoded    bool
	decoderBinary   string
	decodeTimeout   time.Duration
	excludePrefixes []string
}

var compareOpts compareOptions

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare one device trace against one emulator trace",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		var excluded []string
		if cmd.Flags().Changed("exclude") {
			excluded = compareOpts.excludePrefixes
			if excluded == nil {
				excluded = []string{}
			}
		}
		if err := runCompare(context.Background(), compareOpts, excluded, os.Stdout); err != nil {
			logrus.Fatalf("Comparison failed: %v", err)
		}
	},
}

// runCompare decodes and compares one pair, writing the artifact to
// opts.outPath or, when empty, to stdout. excluded follows
// diverge.NewComparator (nil = default prefixes).
func runCompare(ctx context.Context, opts compareOptions, excluded []string, stdout io.Writer) error {
	dec := newDecoder(opts.predecoded, opts.cacheDecoded, opts.decoderBinary, opts.decodeTimeout)
	cmp := diverge.NewComparator(excluded)

	if opts.outPath != "" {
		records, err := pipeline.ComparePair(ctx, dec, cmp, pipeline.Pair{
			DevicePath:   opts.devicePath,
			EmulatorPath: opts.emulatorPath,
			OutputPath:   opts.outPath,
		})
		if err != nil {
			return err
		}
		logrus.Infof("%s written (%d thread pairs)", opts.outPath, len(records))
		return nil
	}

	deviceText, err := dec.Decode(ctx, opts.devicePath)
	if err != nil {
		return fmt.Errorf("device trace: %w", err)
	}
	emulatorText, err := dec.Decode(ctx, opts.emulatorPath)
	if err != nil {
		return fmt.Errorf("emulator trace: %w", err)
	}
	records, err := cmp.Compare(deviceText, emulatorText)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

func init() {
	compareCmd.Flags().StringVar(&compareOpts.devicePath, "device", "", "Trace captured on the physical device")
	compareCmd.Flags().StringVar(&compareOpts.emulatorPath, "emulator", "", "Trace captured on the emulator")
	compareCmd.Flags().StringVarP(&compareOpts.outPath, "out", "o", "", "Write the JSON artifact here instead of stdout")
	compareCmd.Flags().BoolVar(&compareOpts.predecoded, "predecoded", false, "Inputs already hold decoded trace text (.zst accepted)")
	compareCmd.Flags().BoolVar(&compareOpts.cacheDecoded, "cache-decoded", false, "Keep <trace>.txt.zst next to each input and reuse it")
	compareCmd.Flags().StringVar(&compareOpts.decoderBinary, "decoder", "", "Trace dump tool (default dmtracedump on PATH)")
	compareCmd.Flags().DurationVar(&compareOpts.decodeTimeout, "decode-timeout", 0, "Per-file decode time limit (0 = none)")
	compareCmd.Flags().StringSliceVar(&compareOpts.excludePrefixes, "exclude", nil, "Namespace prefixes treated as noise (default: Android framework/runtime)")
	_ = compareCmd.MarkFlagRequired("device")
	_ = compareCmd.MarkFlagRequired("emulator")

	rootCmd.AddCommand(compareCmd)
}
