package rod

import (
	"context"
	"strings"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

// Products reads the visible product grid. Cards missing a title or price
// still produce a snapshot with what was readable.
func (s *Session) Products(ctx context.Context, sel output.ProductSelectors) ([]entity.ProductSnapshot, error) {
	items, err := s.page.Context(ctx).Elements(sel.Item)
	if err != nil {
		return nil, output.NewStepError("products", sel.Item, err)
	}

	snapshots := make([]entity.ProductSnapshot, 0, len(items))
	for _, item := range items {
		var snap entity.ProductSnapshot

		if titleEl, err := item.Element(sel.Title); err == nil {
			if text, err := titleEl.Text(); err == nil {
				snap.Title = strings.TrimSpace(text)
			}
		}
		if priceEl, err := item.Element(sel.Price); err == nil {
			if text, err := priceEl.Text(); err == nil {
				snap.Price = strings.TrimSpace(text)
			}
		}
		if sel.Link != "" {
			if linkEl, err := item.Element(sel.Link); err == nil {
				if href, err := linkEl.Attribute("href"); err == nil && href != nil {
					snap.URL = *href
				}
			}
		}

		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}
