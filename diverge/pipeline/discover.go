package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	eventsDir   = "events"
	traceExt    = ".trace"
	tracePrefix = "event_trace_"
)

// Pair is one device/emulator trace file pair and the artifact it produces.
type Pair struct {
	App          string
	DevicePath   string
	EmulatorPath string
	OutputPath   string
}

// TraceTag strips the "event_trace_" prefix and ".trace" suffix from a trace
// file name.
func TraceTag(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, tracePrefix), traceExt)
}

// DiscoverPairs finds the apps present under both deviceDir and emulatorDir
// and pairs their "events/*.trace" files positionally in name order. Output
// files are named "<app>_<deviceTag>_<emulatorTag>.json" under outputDir.
// Two pairs resolving to the same output file is a configuration error.
func DiscoverPairs(deviceDir, emulatorDir, outputDir string) ([]Pair, error) {
	deviceApps, err := subdirs(deviceDir)
	if err != nil {
		return nil, err
	}
	emulatorApps, err := subdirs(emulatorDir)
	if err != nil {
		return nil, err
	}

	onEmulator := make(map[string]bool, len(emulatorApps))
	for _, app := range emulatorApps {
		onEmulator[app] = true
	}

	var pairs []Pair
	outputs := make(map[string]Pair)
	for _, app := range deviceApps {
		if !onEmulator[app] {
			logrus.Debugf("app %s has no emulator run; skipped", app)
			continue
		}
		deviceTraces, err := traceFiles(filepath.Join(deviceDir, app, eventsDir))
		if err != nil {
			logrus.Warnf("app %s: %v; skipped", app, err)
			continue
		}
		emulatorTraces, err := traceFiles(filepath.Join(emulatorDir, app, eventsDir))
		if err != nil {
			logrus.Warnf("app %s: %v; skipped", app, err)
			continue
		}
		if len(deviceTraces) != len(emulatorTraces) {
			logrus.Warnf("app %s: %d device traces vs %d emulator traces; pairing the first %d",
				app, len(deviceTraces), len(emulatorTraces), min(len(deviceTraces), len(emulatorTraces)))
		}

		for i := 0; i < len(deviceTraces) && i < len(emulatorTraces); i++ {
			d, e := deviceTraces[i], emulatorTraces[i]
			p := Pair{
				App:          app,
				DevicePath:   filepath.Join(deviceDir, app, eventsDir, d),
				EmulatorPath: filepath.Join(emulatorDir, app, eventsDir, e),
				OutputPath:   filepath.Join(outputDir, fmt.Sprintf("%s_%s_%s.json", app, TraceTag(d), TraceTag(e))),
			}
			if prev, dup := outputs[p.OutputPath]; dup {
				return nil, fmt.Errorf("output %s produced by both %s and %s", p.OutputPath, prev.DevicePath, p.DevicePath)
			}
			outputs[p.OutputPath] = p
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

// subdirs lists the immediate subdirectory names of dir in sorted order.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// traceFiles lists the *.trace regular files of dir in sorted order.
func traceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing traces: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), traceExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
