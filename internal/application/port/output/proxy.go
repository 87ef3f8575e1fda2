package output

// ProxySelector hands out upstream proxies for new browser sessions.
type ProxySelector interface {
	// Next returns the next proxy URL, or "" when the pool is empty.
	Next() string
	Has() bool
}
