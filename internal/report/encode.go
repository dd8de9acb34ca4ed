package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func Encode(rep *types.Report, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return json.MarshalIndent(rep, "", "  ")
	case FormatYAML, "yml":
		return yaml.Marshal(rep)
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

func Decode(data []byte, format string) (*types.Report, error) {
	var rep types.Report
	switch strings.ToLower(format) {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &rep); err != nil {
			return nil, err
		}
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, &rep); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
	return &rep, nil
}

// Extension maps a format to the file extension used for persisted reports.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return ".yaml"
	default:
		return ".json"
	}
}
