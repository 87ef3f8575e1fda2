package artifacts

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanConfig controls which parts of a page snapshot are kept.
type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	MaxOutputSize int
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	MaxOutputSize: 500_000,
}

// CleanHTML strips scripts, styles and noisy attributes from a snapshot so
// the stored artifact stays reviewable. On parse failure the raw input is
// returned unchanged.
func CleanHTML(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	body := findBody(doc)
	if body == nil {
		return rawHTML
	}

	cleanNode(body, cfg)

	var sb strings.Builder
	_ = html.Render(&sb, body)
	return truncate(sb.String(), cfg.MaxOutputSize)
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	for _, tag := range cfg.TagsToRemove {
		if n.Data == tag {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return
		}
	}

	n.Attr = keepAttributes(n.Attr, cfg)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func keepAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if dropAttr(attr.Key, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

func dropAttr(key string, cfg *CleanConfig) bool {
	for _, r := range cfg.AttrsToRemove {
		if key == r {
			return true
		}
	}
	return strings.HasPrefix(key, "on")
}

func truncate(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize] + "\n<!-- snapshot truncated -->"
	}
	return s
}
