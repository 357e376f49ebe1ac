package ledger

// PageKey identifies one physical page of one source document.
type PageKey struct {
	Document string
	Page     int
}

// PageClaims records which pages were already written out during a run.
// It is never persisted; a new run starts from an empty set.
type PageClaims struct {
	claimed map[PageKey]struct{}
	perDoc  map[string]int
}

// NewPageClaims creates an empty claim set.
func NewPageClaims() *PageClaims {
	return &PageClaims{
		claimed: make(map[PageKey]struct{}),
		perDoc:  make(map[string]int),
	}
}

// Claim records (doc, page) and returns true, or returns false if the page
// was already claimed.
func (c *PageClaims) Claim(doc string, page int) bool {
	key := PageKey{Document: doc, Page: page}
	if _, ok := c.claimed[key]; ok {
		return false
	}
	c.claimed[key] = struct{}{}
	c.perDoc[doc]++
	return true
}

// IsClaimed reports whether (doc, page) was claimed.
func (c *PageClaims) IsClaimed(doc string, page int) bool {
	_, ok := c.claimed[PageKey{Document: doc, Page: page}]
	return ok
}

// Unclaimed filters pages down to those not yet claimed for doc, keeping order.
func (c *PageClaims) Unclaimed(doc string, pages []int) []int {
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		if !c.IsClaimed(doc, p) {
			out = append(out, p)
		}
	}
	return out
}

// Count returns how many pages of doc were claimed.
func (c *PageClaims) Count(doc string) int {
	return c.perDoc[doc]
}

// Len returns the total number of claimed pages.
func (c *PageClaims) Len() int {
	return len(c.claimed)
}
