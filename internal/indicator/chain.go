package indicator

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"VnPanel/internal/calculator"
	"VnPanel/internal/panel"
)

// Chain configuration errors. All of them wrap ErrConfig.
var (
	ErrConfig           = errors.New("indicator config")
	ErrUnknownIndicator = fmt.Errorf("%w: unknown indicator", ErrConfig)
	ErrMissingParameter = fmt.Errorf("%w: missing parameter", ErrConfig)
	ErrUnknownParameter = fmt.Errorf("%w: unknown parameter", ErrConfig)
	ErrBadParameter     = fmt.Errorf("%w: bad parameter", ErrConfig)
)

// Step is one indicator application with its integer parameters.
type Step struct {
	Name   string         `yaml:"name"`
	Params map[string]int `yaml:"params"`
}

func (s Step) String() string {
	if len(s.Params) == 0 {
		return s.Name
	}
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := s.Name + "("
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += k + "=" + strconv.Itoa(s.Params[k])
	}
	return out + ")"
}

type definition struct {
	required []string
	optional map[string]int // parameter -> default; -1 means no default
	outputs  func(params map[string]int) []string
	apply    func(p *panel.Panel, params map[string]int) (*panel.Panel, error)
}

func lookbackIndicator(prefix string, fn func(*panel.Panel, int) (*panel.Panel, error)) definition {
	return definition{
		required: []string{"lookback"},
		outputs: func(params map[string]int) []string {
			return []string{named(prefix, params["lookback"])}
		},
		apply: func(p *panel.Panel, params map[string]int) (*panel.Panel, error) {
			return fn(p, params["lookback"])
		},
	}
}

func fixedIndicator(fn func(*panel.Panel) (*panel.Panel, error), outputs ...string) definition {
	return definition{
		outputs: func(map[string]int) []string { return outputs },
		apply: func(p *panel.Panel, _ map[string]int) (*panel.Panel, error) {
			return fn(p)
		},
	}
}

var registry = map[string]definition{
	"ma":              lookbackIndicator("ma", MovingAverage),
	"roc":             lookbackIndicator("roc", ROC),
	"natr":            lookbackIndicator("natr", NATR),
	"disparity_index": lookbackIndicator("disparity_index", DisparityIndex),
	"ema":             lookbackIndicator("ema", EMA),
	"rsi":             lookbackIndicator("rsi", RSI),
	"chande_mo":       lookbackIndicator("chande_mo", ChandeMO),
	"cci":             lookbackIndicator("cci", CCI),
	"mfi":             lookbackIndicator("mfi", MFI),
	"williams_r": {
		required: []string{"lookback"},
		outputs: func(params map[string]int) []string {
			return []string{fmt.Sprintf("%d_day_wr", params["lookback"])}
		},
		apply: func(p *panel.Panel, params map[string]int) (*panel.Panel, error) {
			return WilliamsR(p, params["lookback"])
		},
	},
	"triple_ema": fixedIndicator(TripleEMA, "triple_ema"),
	"macd":       fixedIndicator(MACD, "macd", "macd_s", "macd_h"),
	"obv":        fixedIndicator(OBV, "OBV"),
	"acc_dist":   fixedIndicator(AccumulationDistribution, "acc_dist_line"),
	"ppo": {
		optional: map[string]int{"fast": PPOFast, "slow": PPOSlow, "signal": PPOSignal},
		outputs: func(params map[string]int) []string {
			a, b, c := PPONames(params["fast"], params["slow"], params["signal"])
			return []string{a, b, c}
		},
		apply: func(p *panel.Panel, params map[string]int) (*panel.Panel, error) {
			return PPO(p, params["fast"], params["slow"], params["signal"])
		},
	},
	"bbands": {
		optional: map[string]int{"lookback": -1},
		outputs: func(params map[string]int) []string {
			lookbacks := DefaultBandLookbacks
			if n, ok := params["lookback"]; ok {
				lookbacks = []int{n}
			}
			var out []string
			for _, n := range lookbacks {
				out = append(out, named("ma", n), "upper_b"+strconv.Itoa(n), "lower_b"+strconv.Itoa(n))
			}
			return out
		},
		apply: func(p *panel.Panel, params map[string]int) (*panel.Panel, error) {
			if n, ok := params["lookback"]; ok {
				return BollingerBands(p, n)
			}
			return BollingerBands(p)
		},
	},
}

// Names returns every registered indicator name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// resolve checks a step against its definition and fills in defaults.
func resolve(s Step) (definition, map[string]int, error) {
	def, ok := registry[s.Name]
	if !ok {
		return definition{}, nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownIndicator, s.Name, strings.Join(Names(), ", "))
	}
	params := make(map[string]int, len(s.Params)+len(def.optional))
	for k, v := range def.optional {
		if v >= 0 {
			params[k] = v
		}
	}
	allowed := make(map[string]bool, len(def.required)+len(def.optional))
	for _, k := range def.required {
		allowed[k] = true
		if _, ok := s.Params[k]; !ok {
			return definition{}, nil, fmt.Errorf("%w %q for %s", ErrMissingParameter, k, s.Name)
		}
	}
	for k := range def.optional {
		allowed[k] = true
	}
	for k, v := range s.Params {
		if !allowed[k] {
			return definition{}, nil, fmt.Errorf("%w %q for %s", ErrUnknownParameter, k, s.Name)
		}
		if v < 1 {
			return definition{}, nil, fmt.Errorf("%w %s=%d for %s: %w", ErrBadParameter, k, v, s.Name, calculator.ErrParameter)
		}
		params[k] = v
	}
	return def, params, nil
}

type resolvedStep struct {
	step   Step
	def    definition
	params map[string]int
}

// Chain applies an ordered list of indicator steps to a panel.
type Chain struct {
	steps []resolvedStep
}

// NewChain validates every step before anything is computed.
func NewChain(steps []Step) (*Chain, error) {
	c := &Chain{steps: make([]resolvedStep, 0, len(steps))}
	for i, s := range steps {
		def, params, err := resolve(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		c.steps = append(c.steps, resolvedStep{step: s, def: def, params: params})
	}
	return c, nil
}

// Len returns the number of steps.
func (c *Chain) Len() int { return len(c.steps) }

// Steps returns the configured steps.
func (c *Chain) Steps() []Step {
	out := make([]Step, len(c.steps))
	for i, rs := range c.steps {
		out[i] = rs.step
	}
	return out
}

// Columns lists the output columns of the chain in first-produced order.
func (c *Chain) Columns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rs := range c.steps {
		for _, name := range rs.def.outputs(rs.params) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Apply validates p and threads it through every step in order.
func (c *Chain) Apply(p *panel.Panel) (*panel.Panel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for i, rs := range c.steps {
		next, err := rs.def.apply(p, rs.params)
		if err != nil {
			return nil, fmt.Errorf("step %d %s: %w", i, rs.step, err)
		}
		p = next
	}
	return p, nil
}

// Expand turns one indicator with several lookbacks into one step per
// lookback, each carrying the shared params plus "lookback".
func Expand(name string, lookbacks []int, params map[string]int) []Step {
	if len(lookbacks) == 0 {
		return []Step{{Name: name, Params: params}}
	}
	steps := make([]Step, 0, len(lookbacks))
	for _, n := range lookbacks {
		merged := make(map[string]int, len(params)+1)
		for k, v := range params {
			merged[k] = v
		}
		merged["lookback"] = n
		steps = append(steps, Step{Name: name, Params: merged})
	}
	return steps
}

// DefaultSteps is the batch indicator set run for every ticker.
func DefaultSteps() []Step {
	var steps []Step
	add := func(s ...Step) { steps = append(steps, s...) }
	add(Expand("ma", []int{10, 20, 50, 100}, nil)...)
	add(Expand("rsi", []int{10, 15, 20, 25}, nil)...)
	add(Expand("natr", []int{10, 15, 20}, nil)...)
	add(Step{Name: "obv"}, Step{Name: "acc_dist"})
	add(Expand("williams_r", []int{10, 15, 20}, nil)...)
	add(Step{Name: "triple_ema"})
	add(Expand("roc", []int{5, 10, 20, 40, 80}, nil)...)
	add(Step{Name: "ppo"})
	add(Step{Name: "ppo", Params: map[string]int{"fast": 9, "slow": 20, "signal": 9}})
	add(Expand("mfi", []int{10, 14, 20}, nil)...)
	add(Step{Name: "macd"})
	add(Expand("chande_mo", []int{14}, nil)...)
	add(Expand("cci", []int{14, 28}, nil)...)
	add(Expand("disparity_index", []int{1, 2, 5, 10, 20, 50, 100}, nil)...)
	add(Step{Name: "bbands"})
	return steps
}

// DefaultChain builds a chain from DefaultSteps.
func DefaultChain() *Chain {
	c, err := NewChain(DefaultSteps())
	if err != nil {
		panic(err)
	}
	return c
}
