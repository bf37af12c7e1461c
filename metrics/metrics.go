package metrics

import (
	"encoding/json"
	"time"
)

type IOInfo struct {
	Duration time.Duration `json:"duration"`
	Bytes    int64         `json:"bytes"`
}

type PhaseInfo struct {
	Duration time.Duration `json:"duration"`
}

// RunInfo is the metrics record of one transform invocation. It is
// emitted as a single JSON line through a Logger.
type RunInfo struct {
	RunTime      string        `json:"run_time"`
	RunDuration  time.Duration `json:"run_duration"`
	RedPath      string        `json:"red_path"`
	NirPath      string        `json:"nir_path"`
	OutputPath   string        `json:"output_path"`
	Expression   string        `json:"expression"`
	Shape        []int         `json:"shape"`
	ValidPixels  int           `json:"valid_pixels"`
	NoDataPixels int           `json:"nodata_pixels"`
	Read         IOInfo        `json:"read"`
	Compute      PhaseInfo     `json:"compute"`
	Write        IOInfo        `json:"write"`
	Status       string        `json:"status"`
}

type Collector struct {
	Info   *RunInfo
	logger Logger
}

func NewCollector(logger Logger) *Collector {
	return &Collector{
		Info: &RunInfo{
			RunTime: time.Now().Format(time.RFC3339),
		},
		logger: logger,
	}
}

func (c *Collector) Log() {
	if c.logger != nil {
		c.logger.Log(c.Info)
	}
}

func (i *RunInfo) ToJSON() (string, error) {
	infoBytes, err := json.Marshal(i)
	if err != nil {
		return "", err
	}
	return string(infoBytes) + "\n", nil
}
