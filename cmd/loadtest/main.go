package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/awmpietro/golang-workflow-volume/internal/transport/workflowdto"
)

// sampleDefinitions is used when no -definitions file is given.
const sampleDefinitions = `px{a<2006:qkq,m>2090:A,rfg}
pv{a>1716:R,A}
lnx{m>1548:A,A}
rfg{s<537:gd,x>2440:R,A}
qs{s>3448:A,lnx}
qkq{x<1416:A,crn}
crn{x>2662:A,R}
in{s<1351:px,qqz}
qqz{s>2770:qs,m<1801:hdj,R}
gd{a>3333:R,R}
hdj{m>838:A,pv}`

type options struct {
	url      string
	rps      int
	duration time.Duration
	workers  int
	timeout  time.Duration
	maxP90   time.Duration
}

type sample struct {
	latency  time.Duration
	status   int
	accepted string
	err      error
}

// report aggregates samples. Every 2xx response must carry the same accepted
// volume; a second distinct value means the service answered inconsistently.
type report struct {
	latencies []time.Duration
	ok        int
	non2xx    int
	errs      int
	volumes   map[string]int
}

func main() {
	var opts options
	defs := flag.String("definitions", "", "file with workflow definitions (text or DOT)")
	debug := flag.Bool("debug", false, "request a propagation trace with every count")
	flag.StringVar(&opts.url, "url", "http://localhost:8080/count", "count endpoint URL")
	flag.IntVar(&opts.rps, "rps", 50, "target requests per second")
	flag.DurationVar(&opts.duration, "duration", 60*time.Second, "test duration")
	flag.IntVar(&opts.workers, "workers", 50, "number of concurrent workers")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.DurationVar(&opts.maxP90, "p90", 30*time.Millisecond, "P90 latency budget")
	flag.Parse()

	if opts.rps <= 0 || opts.duration <= 0 || opts.workers <= 0 {
		fmt.Fprintln(os.Stderr, "rps, duration and workers must be > 0")
		os.Exit(2)
	}

	req := workflowdto.CountRequest{Definitions: sampleDefinitions, Debug: *debug}
	if *defs != "" {
		raw, err := os.ReadFile(*defs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read definitions: %v\n", err)
			os.Exit(1)
		}
		req.Definitions = string(raw)
	}
	body, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal payload: %v\n", err)
		os.Exit(1)
	}

	rep, launched := run(context.Background(), opts, body)
	if len(rep.latencies) == 0 {
		fmt.Fprintln(os.Stderr, "no requests executed")
		os.Exit(1)
	}
	if !rep.print(opts, launched) {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, body []byte) (*report, int) {
	client := &http.Client{Timeout: opts.timeout}
	jobs := make(chan struct{}, opts.workers)
	rep := &report{volumes: map[string]int{}}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for range opts.workers {
		g.Go(func() error {
			for range jobs {
				s := send(ctx, client, opts.url, body)
				mu.Lock()
				rep.add(s)
				mu.Unlock()
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(opts.rps))
	defer ticker.Stop()
	deadline := time.Now().Add(opts.duration)
	launched := 0
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		jobs <- struct{}{}
		launched++
	}
	close(jobs)
	_ = g.Wait()

	return rep, launched
}

func send(ctx context.Context, client *http.Client, url string, body []byte) sample {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return sample{latency: time.Since(start), err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return sample{latency: time.Since(start), err: err}
	}
	defer resp.Body.Close()

	s := sample{status: resp.StatusCode}
	if resp.StatusCode/100 == 2 {
		var out workflowdto.CountResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			s.err = fmt.Errorf("decode response: %w", err)
		}
		s.accepted = out.Accepted
	}
	s.latency = time.Since(start)
	return s
}

func (r *report) add(s sample) {
	r.latencies = append(r.latencies, s.latency)
	switch {
	case s.err != nil:
		r.errs++
	case s.status/100 == 2:
		r.ok++
		r.volumes[s.accepted]++
	default:
		r.non2xx++
	}
}

func (r *report) print(opts options, launched int) bool {
	slices.Sort(r.latencies)
	p90 := percentile(r.latencies, 90)
	achieved := float64(len(r.latencies)) / opts.duration.Seconds()

	fmt.Printf("Load test finished\n")
	fmt.Printf("- target_rps: %d\n", opts.rps)
	fmt.Printf("- achieved_rps: %.2f\n", achieved)
	fmt.Printf("- duration: %s\n", opts.duration)
	fmt.Printf("- launched: %d\n", launched)
	fmt.Printf("- requests: %d\n", len(r.latencies))
	fmt.Printf("- 2xx: %d\n", r.ok)
	fmt.Printf("- non_2xx: %d\n", r.non2xx)
	fmt.Printf("- errors: %d\n", r.errs)
	fmt.Printf("- avg_ms: %.3f\n", ms(average(r.latencies)))
	fmt.Printf("- p50_ms: %.3f\n", ms(percentile(r.latencies, 50)))
	fmt.Printf("- p90_ms: %.3f\n", ms(p90))
	fmt.Printf("- p99_ms: %.3f\n", ms(percentile(r.latencies, 99)))
	for v, n := range r.volumes {
		fmt.Printf("- accepted %s: %d responses\n", v, n)
	}

	if len(r.volumes) > 1 {
		fmt.Println("FAIL: responses disagree on the accepted volume")
		return false
	}
	if achieved >= float64(opts.rps)*0.98 && p90 < opts.maxP90 && r.errs == 0 && r.non2xx == 0 {
		fmt.Printf("PASS: meets %d RPS and P90 < %s\n", opts.rps, opts.maxP90)
		return true
	}
	fmt.Println("FAIL: does not meet target (or has request errors)")
	return false
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[(len(sorted)-1)*p/100]
}

func average(items []time.Duration) time.Duration {
	if len(items) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range items {
		total += d
	}
	return total / time.Duration(len(items))
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
