package indicator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/series"
)

// Spec configures one indicator run. Zero values select the defaults.
type Spec struct {
	Name       string   `yaml:"name" json:"name"`
	Length     int      `yaml:"length,omitempty" json:"length,omitempty"`
	Drift      int      `yaml:"drift,omitempty" json:"drift,omitempty"`
	FastK      int      `yaml:"fast_k,omitempty" json:"fast_k,omitempty"`
	FastD      int      `yaml:"fast_d,omitempty" json:"fast_d,omitempty"`
	SlowD      int      `yaml:"slow_d,omitempty" json:"slow_d,omitempty"`
	SmoothK    int      `yaml:"smooth_k,omitempty" json:"smooth_k,omitempty"`
	SmoothD    int      `yaml:"smooth_d,omitempty" json:"smooth_d,omitempty"`
	C          float64  `yaml:"c,omitempty" json:"c,omitempty"`
	Offset     int      `yaml:"offset,omitempty" json:"offset,omitempty"`
	Fillna     *float64 `yaml:"fillna,omitempty" json:"fillna,omitempty"`
	FillMethod string   `yaml:"fill_method,omitempty" json:"fill_method,omitempty"`
}

// Options converts the offset and fill settings. A constant fill wins over
// a fill method.
func (s Spec) Options() (series.Options, error) {
	opts := series.Options{Offset: s.Offset}
	if s.Fillna != nil {
		opts.Fill = series.FillWith(*s.Fillna)
		return opts, nil
	}
	switch strings.ToLower(s.FillMethod) {
	case "":
	case "ffill", "pad":
		opts.Fill = series.ForwardFill()
	case "bfill", "backfill":
		opts.Fill = series.BackwardFill()
	default:
		return opts, fmt.Errorf("unknown fill method %q", s.FillMethod)
	}
	return opts, nil
}

// stochFastK lets the generic length stand in for the %K window.
func (s Spec) stochFastK() int {
	if s.FastK > 0 {
		return s.FastK
	}
	return s.Length
}

// check rejects parameters an indicator cannot honour.
func (s Spec) check(name string) error {
	switch name {
	case "td":
		if s.Length != 0 {
			return fmt.Errorf("td has a fixed lookback and takes no length (got %d)", s.Length)
		}
	case "stoch":
		fastK := positiveOr(s.stochFastK(), DefaultStochFastK)
		fastD := positiveOr(s.FastD, DefaultStochFastD)
		if fastK == fastD {
			return fmt.Errorf("fast_k and fast_d are both %d, which would produce two STOCHF_%d columns", fastK, fastK)
		}
	}
	return nil
}

type calcFunc func(s Spec, data candle.Columns, opts series.Options) (series.Frame, error)

func single(r series.Result, err error) (series.Frame, error) {
	if err != nil {
		return series.Frame{}, err
	}
	return series.Single(r), nil
}

var registry = map[string]calcFunc{
	"rsi": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return single(CalculateRSI(d.Close, s.Length, s.Drift, o))
	},
	"stoch": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return CalculateStoch(d.High, d.Low, d.Close, s.stochFastK(), s.FastD, s.SlowD, o)
	},
	"stochrsi": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return CalculateStochRSI(d.Close, s.Length, s.SmoothK, s.SmoothD, s.Drift, o)
	},
	"cci": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return single(CalculateCCI(d.High, d.Low, d.Close, s.Length, s.C, o))
	},
	"stochcci": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return CalculateStochCCI(d.High, d.Low, d.Close, s.Length, s.SmoothK, s.SmoothD, o)
	},
	"td": func(_ Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return CalculateTD(d.High, d.Low, d.Close, o)
	},
	"bias": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return single(CalculateBias(d.Close, s.Length, o))
	},
	"entropy": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return single(CalculateEntropy(d.Close, s.Length, o))
	},
	"turningpoints": func(s Spec, d candle.Columns, o series.Options) (series.Frame, error) {
		return single(CalculateTurningPointsOHLCV(d.High, d.Low, d.Close, d.Volume, s.Length, o))
	},
}

var aliases = map[string]string{
	"stoch_rsi":      "stochrsi",
	"stoch_cci":      "stochcci",
	"turning_point":  "turningpoints",
	"turningpoint":   "turningpoints",
	"turning_points": "turningpoints",
}

func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[name]; ok {
		return a
	}
	return name
}

// Names returns the supported indicator names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsSupported reports whether name (or one of its aliases) is registered.
func IsSupported(name string) bool {
	_, ok := registry[canonical(name)]
	return ok
}

type configured struct {
	name string
	spec Spec
	opts series.Options
	calc calcFunc
}

func (c *configured) Name() string { return c.name }

func (c *configured) Calculate(data candle.Columns) (series.Frame, error) {
	frame, err := c.calc(c.spec, data, c.opts)
	if err != nil {
		return series.Frame{}, fmt.Errorf("%s: %w", c.name, err)
	}
	return frame, nil
}

// Build returns the indicator described by spec.
func Build(spec Spec) (Indicator, error) {
	name := canonical(spec.Name)
	calc, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported indicator %q (supported: %s)", spec.Name, strings.Join(Names(), ", "))
	}
	if err := spec.check(name); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	opts, err := spec.Options()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &configured{name: name, spec: spec, opts: opts, calc: calc}, nil
}

// BuildAll builds every spec, failing on the first invalid one.
func BuildAll(specs []Spec) ([]Indicator, error) {
	out := make([]Indicator, 0, len(specs))
	for _, s := range specs {
		ind, err := Build(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ind)
	}
	return out, nil
}
