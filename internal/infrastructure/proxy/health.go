package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"shop-agent/internal/application/port/output"
)

// ProxyStatus is one probe outcome.
type ProxyStatus struct {
	Proxy     string    `json:"proxy"`
	Healthy   bool      `json:"healthy"`
	LatencyMS int64     `json:"latency_ms,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Report is the full pool snapshot written to the status file.
type Report struct {
	CheckedAt time.Time     `json:"checked_at"`
	Healthy   int           `json:"healthy"`
	Total     int           `json:"total"`
	Proxies   []ProxyStatus `json:"proxies"`
}

// Prober checks every proxy in the pool against a probe URL and keeps the
// latest report in memory and on disk.
type Prober struct {
	pool       *Pool
	probeURL   string
	statusFile string
	timeout    time.Duration
	logger     output.LoggerPort

	mu     sync.RWMutex
	latest Report
}

func NewProber(pool *Pool, probeURL, statusFile string, timeout time.Duration, logger output.LoggerPort) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{
		pool:       pool,
		probeURL:   probeURL,
		statusFile: statusFile,
		timeout:    timeout,
		logger:     logger,
	}
}

// Latest returns the most recent report. The zero report means no probe has
// completed yet.
func (p *Prober) Latest() Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Run probes every proxy once, concurrently, and persists the report.
func (p *Prober) Run(ctx context.Context) Report {
	proxies := p.pool.All()
	statuses := make([]ProxyStatus, len(proxies))

	var wg sync.WaitGroup
	for i, proxyURL := range proxies {
		wg.Add(1)
		go func(i int, proxyURL string) {
			defer wg.Done()
			statuses[i] = p.probe(ctx, proxyURL)
		}(i, proxyURL)
	}
	wg.Wait()

	report := Report{CheckedAt: time.Now().UTC(), Total: len(statuses), Proxies: statuses}
	for _, s := range statuses {
		if s.Healthy {
			report.Healthy++
		}
	}

	p.mu.Lock()
	p.latest = report
	p.mu.Unlock()

	if err := p.persist(report); err != nil {
		p.logger.Warn("proxy status file write failed", "file", p.statusFile, "error", err)
	}
	p.logger.Info("proxy pool probed", "healthy", report.Healthy, "total", report.Total)
	return report
}

// RunLoop re-probes on every tick until the context is cancelled.
func (p *Prober) RunLoop(ctx context.Context, interval time.Duration) {
	p.Run(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Run(ctx)
		}
	}
}

func (p *Prober) probe(ctx context.Context, proxyURL string) ProxyStatus {
	status := ProxyStatus{Proxy: proxyURL, CheckedAt: time.Now().UTC()}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	client := &http.Client{
		Timeout:   p.timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.LatencyMS = time.Since(start).Milliseconds()
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		status.Healthy = true
	} else {
		status.Error = resp.Status
	}
	return status
}

func (p *Prober) persist(report Report) error {
	if p.statusFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	tmp := p.statusFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, p.statusFile)
}
