// Package pipeline drives device/emulator comparisons across whole capture
// directories: it discovers trace pairs, runs them on a bounded worker pool
// and persists one artifact per pair plus a run manifest.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/droidtrace/tracediff/diverge"
	"github.com/droidtrace/tracediff/diverge/decode"
)

// ManifestFile is the name of the run manifest inside the output directory.
const ManifestFile = "manifest.json"

// Job configures one orchestrated run.
type Job struct {
	DeviceDir   string
	EmulatorDir string
	OutputDir   string
	Workers     int

	Decoder    decode.Decoder
	Comparator *diverge.Comparator
}

// PairResult is the outcome of one pair. Error is empty on success.
type PairResult struct {
	App      string `json:"app"`
	Device   string `json:"device"`
	Emulator string `json:"emulator"`
	Output   string `json:"output"`
	Records  int    `json:"records"`
	Diverged int    `json:"diverged"`
	Error    string `json:"error,omitempty"`
}

// Manifest summarises a run, one entry per discovered pair in discovery order.
type Manifest struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Workers    int          `json:"workers"`
	Failed     int          `json:"failed"`
	Pairs      []PairResult `json:"pairs"`
}

// Run compares every discovered pair. Failures of individual pairs are
// recorded in the manifest and never stop sibling comparisons; the returned
// error covers only setup problems and the manifest write.
func Run(ctx context.Context, job Job) (*Manifest, error) {
	if job.Workers < 1 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", job.Workers)
	}
	if job.Decoder == nil {
		job.Decoder = decode.Dmtrace{}
	}
	if job.Comparator == nil {
		job.Comparator = diverge.NewComparator(nil)
	}
	if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	pairs, err := DiscoverPairs(job.DeviceDir, job.EmulatorDir, job.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("discovering trace pairs: %w", err)
	}

	manifest := &Manifest{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Workers:   job.Workers,
		Pairs:     make([]PairResult, len(pairs)),
	}
	log := logrus.WithField("run_id", manifest.RunID)
	log.Infof("comparing %d trace pairs with %d workers", len(pairs), job.Workers)

	var g errgroup.Group
	g.SetLimit(job.Workers)
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			manifest.Pairs[i] = runPair(ctx, job, p, log.WithFields(logrus.Fields{"app": p.App, "output": filepath.Base(p.OutputPath)}))
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range manifest.Pairs {
		if r.Error != "" {
			manifest.Failed++
		}
	}
	manifest.FinishedAt = time.Now().UTC()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return manifest, fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(job.OutputDir, ManifestFile), append(data, '\n')); err != nil {
		return manifest, err
	}
	log.Infof("run complete: %d pairs, %d failed", len(pairs), manifest.Failed)
	return manifest, nil
}

func runPair(ctx context.Context, job Job, p Pair, log *logrus.Entry) PairResult {
	res := PairResult{App: p.App, Device: p.DevicePath, Emulator: p.EmulatorPath, Output: p.OutputPath}
	records, err := ComparePair(ctx, job.Decoder, job.Comparator, p)
	if err != nil {
		log.Errorf("comparison failed: %v", err)
		res.Error = err.Error()
		return res
	}
	res.Records = len(records)
	for i := range records {
		if records[i].Diverged() {
			res.Diverged++
		}
	}
	log.Infof("%s written", p.OutputPath)
	return res
}

// ComparePair decodes both traces of p, compares them and writes the artifact.
// Nothing is written when any step fails.
func ComparePair(ctx context.Context, dec decode.Decoder, cmp *diverge.Comparator, p Pair) ([]diverge.ComparisonRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deviceText, err := dec.Decode(ctx, p.DevicePath)
	if err != nil {
		return nil, fmt.Errorf("device trace: %w", err)
	}
	emulatorText, err := dec.Decode(ctx, p.EmulatorPath)
	if err != nil {
		return nil, fmt.Errorf("emulator trace: %w", err)
	}
	records, err := cmp.Compare(deviceText, emulatorText)
	if err != nil {
		return nil, err
	}
	if err := WriteRecords(p.OutputPath, records); err != nil {
		return nil, err
	}
	return records, nil
}
