package entity

// ProductSnapshot captures what was visible for one product card on the
// results page at enumeration time.
type ProductSnapshot struct {
	Title string `json:"title"`
	Price string `json:"price"`
	URL   string `json:"url,omitempty"`
}
