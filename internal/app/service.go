package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
	"github.com/awmpietro/golang-workflow-volume/internal/union"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow/eval"
)

type Compiler interface {
	Compile(src string) (*workflow.Set, error)
	Domain() region.Domain
}

type Engine interface {
	Propagate(ctx context.Context, s *workflow.Set) (*workflow.Propagation, error)
	Classify(s *workflow.Set, rec workflow.Record) (workflow.Verdict, error)
}

type TraceEngine interface {
	PropagateWithTrace(ctx context.Context, s *workflow.Set) (*workflow.Propagation, error)
}

type Cache interface {
	GetOrCompute(src string, fn func() (*workflow.Set, error)) (*workflow.Set, error)
}

// ResultStore memoises accepted volumes across processes.
type ResultStore interface {
	Get(ctx context.Context, key string) (*big.Int, bool, error)
	Put(ctx context.Context, key string, v *big.Int) error
	Delete(ctx context.Context, key string) error
}

type CountObserver interface {
	ObserveCount(outcome string)
}

var (
	ErrNoDefinitions  = errors.New("workflow definitions are required")
	ErrVersionPair    = errors.New("definition_id and definition_version must be provided together")
	ErrNoRecords      = errors.New("no records to classify")
	ErrRatingOverflow = errors.New("rating total overflows int64")
)

type CountOptions struct {
	DefinitionID string
	Version      string
	Debug        bool
}

type ClassifyOptions struct {
	DefinitionID string
	Version      string
	// Rating is an arithmetic expression over attribute names. Empty falls
	// back to the service default, then to the sum of all attributes.
	Rating string
}

type DefinitionInfo struct {
	ID        string `json:"id,omitempty"`
	Version   string `json:"version,omitempty"`
	Hash      string `json:"hash"`
	Entry     string `json:"entry"`
	Workflows int    `json:"workflows"`
}

type CountResult struct {
	Accepted          *big.Int
	Rejected          *big.Int
	Total             *big.Int
	AcceptedFragments int
	RejectedFragments int
	// Stored is true when the volume came from the result store.
	Stored     bool
	Definition *DefinitionInfo
	Trace      *workflow.PropagationTrace
}

type RecordVerdict struct {
	Record map[string]int64 `json:"record"`
	Sink   string           `json:"sink"`
	Path   []string         `json:"path"`
	Rating *int64           `json:"rating,omitempty"`
}

type ClassifyResult struct {
	Verdicts   []RecordVerdict
	Accepted   int
	Rating     int64
	RatingExpr string
	Definition *DefinitionInfo
}

type Service struct {
	compiler Compiler
	engine   Engine
	cache    Cache
	store    ResultStore
	counts   CountObserver
	logger   *slog.Logger
	parts    int
	rating   string
}

type Option func(*Service)

func WithResultStore(store ResultStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

func WithCountObserver(o CountObserver) Option {
	return func(s *Service) {
		s.counts = o
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAggregateParts splits union aggregation across n goroutines.
func WithAggregateParts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parts = n
		}
	}
}

// WithDefaultRating sets the rating expression used when a request has none.
func WithDefaultRating(expr string) Option {
	return func(s *Service) {
		s.rating = expr
	}
}

func NewService(compiler Compiler, engine Engine, cache Cache, opts ...Option) *Service {
	s := &Service{
		compiler: compiler,
		engine:   engine,
		cache:    cache,
		logger:   slog.Default(),
		parts:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Domain() region.Domain { return s.compiler.Domain() }

// Count compiles (cached) the definitions and returns the number of domain
// points that reach Accept.
func (s *Service) Count(ctx context.Context, src string, opts CountOptions) (*CountResult, error) {
	res, err := s.count(ctx, src, opts)
	if s.counts != nil {
		switch {
		case err != nil:
			s.counts.ObserveCount("error")
		case res.Stored:
			s.counts.ObserveCount("stored")
		default:
			s.counts.ObserveCount("computed")
		}
	}
	return res, err
}

func (s *Service) count(ctx context.Context, src string, opts CountOptions) (*CountResult, error) {
	set, info, err := s.load(src, opts.DefinitionID, opts.Version)
	if err != nil {
		return nil, err
	}

	total := set.Domain.Full().Volume()
	key := resultKey(info.Hash, set)

	if s.store != nil && !opts.Debug {
		v, ok, err := s.store.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("result store read failed", "error", err, "hash", info.Hash)
		case ok && (v.Sign() < 0 || v.Cmp(total) > 0):
			s.logger.Warn("stored volume outside domain, evicting", "hash", info.Hash, "stored", v.String())
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.Warn("result store delete failed", "error", err, "hash", info.Hash)
			}
		case ok:
			return &CountResult{
				Accepted:   v,
				Rejected:   new(big.Int).Sub(total, v),
				Total:      total,
				Stored:     true,
				Definition: info,
			}, nil
		}
	}

	var p *workflow.Propagation
	if te, ok := s.engine.(TraceEngine); ok && opts.Debug {
		p, err = te.PropagateWithTrace(ctx, set)
	} else {
		p, err = s.engine.Propagate(ctx, set)
	}
	if err != nil {
		return nil, err
	}

	accepted, err := union.AggregateParallel(ctx, p.Accepted, s.parts)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.Put(ctx, key, accepted); err != nil {
			s.logger.Warn("result store write failed", "error", err, "hash", info.Hash)
		}
	}

	s.logger.Debug("accepted volume computed",
		"hash", info.Hash,
		"accepted", accepted.String(),
		"accepted_fragments", len(p.Accepted),
		"rejected_fragments", len(p.Rejected),
	)

	return &CountResult{
		Accepted:          accepted,
		Rejected:          new(big.Int).Sub(total, accepted),
		Total:             total,
		AcceptedFragments: len(p.Accepted),
		RejectedFragments: len(p.Rejected),
		Definition:        info,
		Trace:             p.Trace,
	}, nil
}

// Classify routes each record to a sink and sums the rating of the accepted
// ones. With no records given, text definitions may carry their own after
// the blank line.
func (s *Service) Classify(ctx context.Context, src string, records []map[string]int64, opts ClassifyOptions) (*ClassifyResult, error) {
	set, info, err := s.load(src, opts.DefinitionID, opts.Version)
	if err != nil {
		return nil, err
	}

	recs, err := s.records(src, set.Domain, records)
	if err != nil {
		return nil, err
	}

	ratingExpr := opts.Rating
	if ratingExpr == "" {
		ratingExpr = s.rating
	}
	program, err := eval.Compile(ratingExpr, set.Domain.Names())
	if err != nil {
		return nil, err
	}

	out := &ClassifyResult{
		Verdicts:   make([]RecordVerdict, 0, len(recs)),
		RatingExpr: program.String(),
		Definition: info,
	}
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := s.engine.Classify(set, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		values := rec.Map(set.Domain)
		rv := RecordVerdict{Record: values, Sink: v.Sink, Path: v.Path}
		if v.Accepted() {
			score, err := program.Eval(values)
			if err != nil {
				return nil, fmt.Errorf("record %d: rating: %w", i, err)
			}
			total, ok := addRating(out.Rating, score)
			if !ok {
				return nil, fmt.Errorf("record %d: %w", i, ErrRatingOverflow)
			}
			rv.Rating = &score
			out.Accepted++
			out.Rating = total
		}
		out.Verdicts = append(out.Verdicts, rv)
	}
	return out, nil
}

func addRating(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// Render compiles the definitions and returns them as a DOT digraph.
func (s *Service) Render(src string) (string, error) {
	set, _, err := s.load(src, "", "")
	if err != nil {
		return "", err
	}
	return workflow.ToDOT(set)
}

func (s *Service) load(src, id, version string) (*workflow.Set, *DefinitionInfo, error) {
	if src == "" {
		return nil, nil, ErrNoDefinitions
	}
	if (id == "") != (version == "") {
		return nil, nil, ErrVersionPair
	}

	set, err := s.cache.GetOrCompute(src, func() (*workflow.Set, error) {
		return s.compiler.Compile(src)
	})
	if err != nil {
		return nil, nil, err
	}

	return set, &DefinitionInfo{
		ID:        id,
		Version:   version,
		Hash:      hash(src),
		Entry:     set.Entry,
		Workflows: len(set.Workflows),
	}, nil
}

func (s *Service) records(src string, d region.Domain, given []map[string]int64) ([]workflow.Record, error) {
	if len(given) > 0 {
		recs := make([]workflow.Record, 0, len(given))
		for i, values := range given {
			rec, err := workflow.RecordFromMap(d, values)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			recs = append(recs, rec)
		}
		return recs, nil
	}

	if workflow.IsDOT(src) {
		return nil, ErrNoRecords
	}
	_, recs, err := workflow.ParseInput(src, d)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNoRecords
	}
	return recs, nil
}

// resultKey ties a stored volume to the definitions and the domain they were
// counted over.
func resultKey(srcHash string, set *workflow.Set) string {
	return hash(srcHash + "|" + set.Entry + "|" + set.Domain.Fingerprint())
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
