// Package health composes independent liveness probes into one report. The
// gateway probes each backing service over HTTP; the backing services probe
// their own store and transport.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"mosaic/pkg/platform/httputil"
)

type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Report is the health body. Status is UP only when every component is UP.
type Report struct {
	Status     Status            `json:"status"`
	Components map[string]Status `json:"components"`
}

// Probe checks one component. A nil error means UP.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// FuncProbe adapts a function to a Probe.
type FuncProbe struct {
	ProbeName string
	Fn        func(ctx context.Context) error
}

func (p FuncProbe) Name() string                    { return p.ProbeName }
func (p FuncProbe) Check(ctx context.Context) error { return p.Fn(ctx) }

// HTTPProbe reports UP when GET <baseURL>/health answers 200.
type HTTPProbe struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPProbe(name, baseURL string, client *http.Client) *HTTPProbe {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProbe{
		name:   name,
		url:    strings.TrimRight(baseURL, "/") + "/health",
		client: client,
	}
}

func (p *HTTPProbe) Name() string { return p.name }

func (p *HTTPProbe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s answered %d", p.url, resp.StatusCode)
	}
	return nil
}

// Aggregator runs every probe concurrently. One failing probe only marks its
// own component DOWN.
type Aggregator struct {
	probes []Probe
	logger *slog.Logger
}

func NewAggregator(logger *slog.Logger, probes ...Probe) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{probes: probes, logger: logger}
}

func (a *Aggregator) Check(ctx context.Context) Report {
	report := Report{
		Status:     StatusUp,
		Components: make(map[string]Status, len(a.probes)),
	}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, p := range a.probes {
		g.Go(func() error {
			status := StatusUp
			if err := p.Check(ctx); err != nil {
				status = StatusDown
				a.logger.WarnContext(ctx, "health probe failed", "component", p.Name(), "error", err)
			}
			mu.Lock()
			report.Components[p.Name()] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range report.Components {
		if s != StatusUp {
			report.Status = StatusDown
			break
		}
	}
	return report
}

// ServeHTTP answers 200 with the report when UP and 503 when DOWN.
func (a *Aggregator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := a.Check(r.Context())
	status := http.StatusOK
	if report.Status != StatusUp {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, report)
}
