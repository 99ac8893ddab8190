package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
)

const defaultMaxSteps = 10_000

// FragmentObserver is notified of how many regions a node consumed and
// emitted. Observers passed to WithNodeLatencyObserver may implement it.
type FragmentObserver interface {
	ObserveFragments(nodeID string, in, out int)
}

type Engine struct {
	latencyObserver NodeLatencyObserver
	maxSteps        int
	parallelism     int
	logger          *slog.Logger
}

type EngineOption func(*Engine)

func WithNodeLatencyObserver(observer NodeLatencyObserver) EngineOption {
	return func(e *Engine) {
		e.latencyObserver = observer
	}
}

// WithMaxSteps bounds the number of workflows a single record may visit.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithParallelism bounds how many nodes of one layer are routed at once.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		maxSteps:    defaultMaxSteps,
		parallelism: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Propagation holds the regions that reached each sink.
type Propagation struct {
	Accepted []region.Region
	Rejected []region.Region
	Layers   [][]string
	Trace    *PropagationTrace
}

// Propagate injects the full-domain region at the entry workflow and routes
// it through every reachable workflow in topological order.
func (e *Engine) Propagate(ctx context.Context, s *Set) (*Propagation, error) {
	return e.propagate(ctx, s, false)
}

func (e *Engine) PropagateWithTrace(ctx context.Context, s *Set) (*Propagation, error) {
	return e.propagate(ctx, s, true)
}

type flowKey struct {
	from string
	to   string
}

func (e *Engine) propagate(ctx context.Context, s *Set, withTrace bool) (*Propagation, error) {
	if s == nil {
		return nil, fmt.Errorf("workflow set is nil")
	}
	if s.Workflows == nil {
		return nil, fmt.Errorf("workflow set has no workflows")
	}

	g := buildRoutingGraph(s)
	layers, err := g.layers()
	if err != nil {
		return nil, err
	}

	seed := s.Domain.Full()
	if seed.Empty() {
		return nil, fmt.Errorf("domain has no points")
	}

	flows := map[flowKey][]region.Region{}
	inbox := func(node string) []region.Region {
		var in []region.Region
		if node == s.Entry {
			in = append(in, seed)
		}
		for _, p := range g.pred[node] {
			in = append(in, flows[flowKey{from: p, to: node}]...)
		}
		return in
	}

	var trace *PropagationTrace
	if withTrace {
		trace = &PropagationTrace{Entry: s.Entry, Layers: layers}
	}

	for li, layer := range layers {
		outs := make([]map[string][]region.Region, len(layer))
		steps := make([]*NodeTrace, len(layer))

		grp, gctx := errgroup.WithContext(ctx)
		grp.SetLimit(e.parallelism)
		for i, node := range layer {
			w, ok := s.Workflows[node]
			if !ok {
				continue
			}
			grp.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				start := time.Now()
				in := inbox(node)
				out := make(map[string][]region.Region, len(w.Rules))
				emitted := 0
				for _, r := range in {
					for dest, frags := range w.Apply(r) {
						out[dest] = append(out[dest], frags...)
						emitted += len(frags)
					}
				}
				outs[i] = out

				d := time.Since(start)
				e.observeNodeLatency(node, d)
				e.observeFragments(node, len(in), emitted)
				if withTrace {
					steps[i] = nodeTrace(node, li, d, in, out)
				}
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, err
		}

		for i, node := range layer {
			for dest, frags := range outs[i] {
				k := flowKey{from: node, to: dest}
				flows[k] = append(flows[k], frags...)
			}
			if steps[i] != nil {
				trace.Steps = append(trace.Steps, *steps[i])
			}
		}
		e.logger.Debug("workflow layer routed", "layer", li, "nodes", len(layer))
	}

	p := &Propagation{
		Accepted: inbox(Accept),
		Rejected: inbox(Reject),
		Layers:   layers,
	}
	if trace != nil {
		trace.AcceptedFragments = len(p.Accepted)
		trace.RejectedFragments = len(p.Rejected)
		p.Trace = trace
	}
	return p, nil
}

func nodeTrace(node string, layer int, d time.Duration, in []region.Region, out map[string][]region.Region) *NodeTrace {
	t := &NodeTrace{
		NodeID:         node,
		Layer:          layer,
		DurationMicros: d.Microseconds(),
		InputFragments: len(in),
		InputVolume:    sumVolume(in).String(),
	}
	dests := make([]string, 0, len(out))
	for dest := range out {
		dests = append(dests, dest)
	}
	sort.Strings(dests)
	for _, dest := range dests {
		t.Outputs = append(t.Outputs, OutputTrace{
			To:        dest,
			Fragments: len(out[dest]),
			Volume:    sumVolume(out[dest]).String(),
		})
	}
	return t
}

func sumVolume(regions []region.Region) *big.Int {
	total := new(big.Int)
	for _, r := range regions {
		total.Add(total, r.Volume())
	}
	return total
}

// Verdict is where a single record ends up.
type Verdict struct {
	Sink string   `json:"sink"`
	Path []string `json:"path"`
}

func (v Verdict) Accepted() bool { return v.Sink == Accept }

// Classify walks one record from the entry workflow to a sink.
func (e *Engine) Classify(s *Set, rec Record) (Verdict, error) {
	if s == nil {
		return Verdict{}, fmt.Errorf("workflow set is nil")
	}
	if len(rec) != s.Domain.Len() {
		return Verdict{}, fmt.Errorf("record has %d values, domain has %d attributes", len(rec), s.Domain.Len())
	}

	current := s.Entry
	var path []string
	for range e.maxSteps {
		path = append(path, current)
		if IsSink(current) {
			return Verdict{Sink: current, Path: path}, nil
		}

		nodeStart := time.Now()
		w := s.Workflows[current]
		if w == nil {
			e.observeNodeLatency(current, time.Since(nodeStart))
			return Verdict{Path: path}, fmt.Errorf("unknown node %q", current)
		}
		next, err := w.Route(rec)
		e.observeNodeLatency(current, time.Since(nodeStart))
		if err != nil {
			return Verdict{Path: path}, err
		}
		current = next
	}

	return Verdict{Path: path}, fmt.Errorf("maxSteps exceeded (possible cycle or huge graph)")
}

func (e *Engine) observeNodeLatency(nodeID string, duration time.Duration) {
	if e.latencyObserver == nil {
		return
	}
	e.latencyObserver.ObserveNodeLatency(nodeID, duration)
}

func (e *Engine) observeFragments(nodeID string, in, out int) {
	if fo, ok := e.latencyObserver.(FragmentObserver); ok {
		fo.ObserveFragments(nodeID, in, out)
	}
}
