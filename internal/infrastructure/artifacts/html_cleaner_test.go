package artifacts

import (
	"strings"
	"testing"
)

func TestCleanHTML_StripsNoise(t *testing.T) {
	raw := `<html><head><title>x</title></head><body>
<script>alert('hi')</script>
<style>.a { color: red }</style>
<!-- tracking comment -->
<div class="product-item" id="p1" onclick="track()" style="color:blue">
  <a href="/product/1">First Prize Pies</a>
</div>
</body></html>`

	got := CleanHTML(raw, nil)

	for _, banned := range []string{"<script", "<style", "alert(", "tracking comment", "onclick", "style="} {
		if strings.Contains(got, banned) {
			t.Errorf("cleaned output still contains %q:\n%s", banned, got)
		}
	}
	for _, kept := range []string{`class="product-item"`, `id="p1"`, `href="/product/1"`, "First Prize Pies"} {
		if !strings.Contains(got, kept) {
			t.Errorf("cleaned output lost %q:\n%s", kept, got)
		}
	}
}

func TestCleanHTML_DropsAllEventHandlers(t *testing.T) {
	raw := `<body><button onmouseover="x()" onsubmit="y()" data-id="7">Add to cart</button></body>`

	got := CleanHTML(raw, nil)

	if strings.Contains(got, "onmouseover") || strings.Contains(got, "onsubmit") {
		t.Errorf("event handler attribute survived: %s", got)
	}
	if !strings.Contains(got, `data-id="7"`) {
		t.Errorf("data attribute was dropped: %s", got)
	}
}

func TestCleanHTML_Truncates(t *testing.T) {
	raw := "<body><p>" + strings.Repeat("a", 200) + "</p></body>"
	cfg := &CleanConfig{MaxOutputSize: 50}

	got := CleanHTML(raw, cfg)

	if !strings.Contains(got, "snapshot truncated") {
		t.Errorf("expected truncation marker, got %d bytes", len(got))
	}
	if len(got) > 50+len("\n<!-- snapshot truncated -->") {
		t.Errorf("output too long: %d bytes", len(got))
	}
}

func TestCleanHTML_KeepsTextContent(t *testing.T) {
	raw := `<body><div class="prices"><span>$27.00</span></div></body>`

	got := CleanHTML(raw, nil)

	if !strings.Contains(got, "$27.00") {
		t.Errorf("price text lost: %s", got)
	}
}
