package executor

import (
	"bufio"
	"sort"
	"strconv"
	"strings"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
)

const (
	metricsPrefix  = "[METRICS]"
	reportedPrefix = "Time:"
	startSuffix    = "_TIME_START"
	endSuffix      = "_TIME_END"

	DefaultMarkerTag = "BFS"
)

var (
	DefaultSuccessTokens = []string{"验证成功"}
	DefaultFailureTokens = []string{"验证失败"}
)

// MarkerOptions selects which phase markers and verification tokens are
// honoured. An empty Tag accepts the first complete <TAG>_TIME_START/_END pair.
type MarkerOptions struct {
	Tag           string
	SuccessTokens []string
	FailureTokens []string
}

// Markers is what the candidate reported about itself on stdout.
type Markers struct {
	Values          map[string]int64
	ReportedTimeMs  int64
	HasReportedTime bool
	Verified        *bool
	Window          *types.PhaseWindow
}

// ParseMarkers scans stdout line by line. Marker lines must have the exact
// `[METRICS] KEY=<integer>` shape; anything else is ignored, and a later
// occurrence of a key overwrites an earlier one.
func ParseMarkers(stdout string, opts MarkerOptions) Markers {
	m := Markers{Values: map[string]int64{}}

	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if rest, ok := strings.CutPrefix(line, metricsPrefix); ok {
			key, val, ok := strings.Cut(strings.TrimSpace(rest), "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
			if key == "" || err != nil {
				continue
			}
			m.Values[key] = n
			continue
		}

		if rest, ok := strings.CutPrefix(line, reportedPrefix); ok {
			rest = strings.TrimSuffix(strings.TrimSpace(rest), "ms")
			if n, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64); err == nil {
				m.ReportedTimeMs = n
				m.HasReportedTime = true
			}
		}
	}

	m.Window = phaseWindow(m.Values, opts.Tag)
	m.Verified = verification(stdout, opts)
	return m
}

// phaseWindow converts the millisecond markers into a window in seconds.
// The window is not validated here.
func phaseWindow(values map[string]int64, tag string) *types.PhaseWindow {
	if tag != "" {
		start, okS := values[tag+startSuffix]
		end, okE := values[tag+endSuffix]
		if !okS || !okE {
			return nil
		}
		return &types.PhaseWindow{Start: float64(start) / 1000, End: float64(end) / 1000}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.HasSuffix(k, startSuffix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if w := phaseWindow(values, strings.TrimSuffix(k, startSuffix)); w != nil {
			return w
		}
	}
	return nil
}

func verification(stdout string, opts MarkerOptions) *bool {
	for _, tok := range opts.FailureTokens {
		if tok != "" && strings.Contains(stdout, tok) {
			v := false
			return &v
		}
	}
	for _, tok := range opts.SuccessTokens {
		if tok != "" && strings.Contains(stdout, tok) {
			v := true
			return &v
		}
	}
	return nil
}
