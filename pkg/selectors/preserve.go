package selectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
)

// Resolver checks whether a locator chain resolves to exactly one element
// in a loaded page. No worker calls it; the Synth worker persists chains
// without checking them against a page.
type Resolver struct {
	page *rod.Page
}

// NewResolver wraps an already-navigated rod.Page.
func NewResolver(page *rod.Page) *Resolver { return &Resolver{page: page} }

// Resolve tries each locator in preference order and returns the first tier
// that resolves to exactly one element, or an error if none do.
func (r *Resolver) Resolve(ctx context.Context, locators []Locator) (Tier, error) {
	for _, loc := range locators {
		sel, ok := toRodSelector(loc)
		if !ok {
			continue
		}
		els, err := r.page.Context(ctx).Elements(sel)
		if err != nil {
			continue
		}
		if len(els) == 1 {
			return loc.Tier, nil
		}
	}
	return 0, fmt.Errorf("selectors: no locator in chain resolved to exactly one element")
}

// toRodSelector converts a Locator expression into a CSS selector rod can
// query directly. Data-test, semantic and CSS-fallback expressions are used
// as they are; a role/ARIA expression is used only when it is already an
// `[aria-label=...]` attribute selector. Other role expressions and xpath
// expressions are skipped (ok is false).
func toRodSelector(loc Locator) (string, bool) {
	switch loc.Tier {
	case TierDataTest, TierSemantic, TierCSSFallback:
		return loc.Expression, true
	case TierRoleARIA:
		if strings.HasPrefix(loc.Expression, "[aria-label=") {
			return loc.Expression, true
		}
		return "", false
	default:
		return "", false
	}
}
