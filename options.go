package reqsched

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaximumRequests          = 50
	DefaultMaximumRequestsPerServer = 18
	DefaultPriorityHeapLength       = 20
)

// Options configure a Scheduler.
//
// All zero values are replaced with defaults in FillDefaults. Throttling
// is on by default; DisableThrottling turns the caps off globally so
// every submitted request dispatches immediately.
type Options struct {
	// MaximumRequests caps concurrently active throttled requests.
	MaximumRequests int `yaml:"maximum_requests"`

	// MaximumRequestsPerServer caps active requests per destination
	// unless overridden in PerServerLimits.
	MaximumRequestsPerServer int `yaml:"maximum_requests_per_server"`

	// PriorityHeapLength bounds the admission queue.
	PriorityHeapLength int `yaml:"priority_heap_length"`

	DisableThrottling bool `yaml:"disable_throttling"`

	// PerServerLimits overrides the per-server cap for specific
	// destinations, keyed by "host:port".
	PerServerLimits map[string]int `yaml:"per_server_limits"`

	// BaseURL resolves relative request URLs during key derivation.
	BaseURL string `yaml:"base_url"`
}

func (o *Options) FillDefaults() {
	if o.MaximumRequests <= 0 {
		o.MaximumRequests = DefaultMaximumRequests
	}
	if o.MaximumRequestsPerServer <= 0 {
		o.MaximumRequestsPerServer = DefaultMaximumRequestsPerServer
	}
	if o.PriorityHeapLength <= 0 {
		o.PriorityHeapLength = DefaultPriorityHeapLength
	}
}

// LoadOptions reads Options from a YAML file. A missing file yields the
// defaults.
func LoadOptions(path string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			opts.FillDefaults()
			return opts, nil
		}
		return Options{}, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("reqsched: parse %s: %w", path, err)
	}
	opts.FillDefaults()
	return opts, nil
}
