package proxy

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
	"sync/atomic"

	"shop-agent/internal/application/port/output"
)

var _ output.ProxySelector = (*Pool)(nil)

// Pool hands out proxies round-robin. The list is fixed at construction, so
// selection is a single atomic increment.
type Pool struct {
	proxies []string
	cursor  atomic.Uint64
}

// NewPool trims, deduplicates and drops blank or commented entries, keeping
// first-seen order.
func NewPool(proxies []string) *Pool {
	seen := make(map[string]struct{}, len(proxies))
	clean := make([]string, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		clean = append(clean, p)
	}
	return &Pool{proxies: clean}
}

// NewPoolFromFile reads one proxy URL per line. Blank lines and lines
// starting with # are ignored.
func NewPoolFromFile(path string) (*Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var proxies []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		proxies = append(proxies, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewPool(proxies), nil
}

func (p *Pool) Next() string {
	if len(p.proxies) == 0 {
		return ""
	}
	n := p.cursor.Add(1) - 1
	return p.proxies[n%uint64(len(p.proxies))]
}

// Random picks an arbitrary proxy without advancing the cursor.
func (p *Pool) Random() string {
	if len(p.proxies) == 0 {
		return ""
	}
	return p.proxies[rand.Intn(len(p.proxies))]
}

func (p *Pool) Has() bool { return len(p.proxies) > 0 }

func (p *Pool) All() []string {
	out := make([]string, len(p.proxies))
	copy(out, p.proxies)
	return out
}
