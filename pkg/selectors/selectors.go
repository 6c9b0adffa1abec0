// Package selectors synthesizes a fallback chain of locators for an
// interacted-with HTML element, in the strict preference order spec.md §4.5
// defines: role/ARIA, data-test attributes, semantic, CSS fallback, XPath
// fallback.
package selectors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Tier identifies one locator strategy in the preference chain.
type Tier int

const (
	TierRoleARIA Tier = iota
	TierDataTest
	TierSemantic
	TierCSSFallback
	TierXPathFallback
)

func (t Tier) String() string {
	switch t {
	case TierRoleARIA:
		return "role_aria"
	case TierDataTest:
		return "data_test"
	case TierSemantic:
		return "semantic"
	case TierCSSFallback:
		return "css_fallback"
	case TierXPathFallback:
		return "xpath_fallback"
	default:
		return "unknown"
	}
}

// Locator is one candidate selector at a given tier.
type Locator struct {
	Tier       Tier
	Expression string
}

// Element is the minimal attribute surface needed to synthesize locators.
// Callers populate this from a DOM snapshot (e.g. via go-rod).
type Element struct {
	Tag         string
	Role        string
	AriaLabel   string
	ID          string
	Name        string
	Placeholder string
	Text        string
	Classes     []string
	Attrs       map[string]string // arbitrary data-* and other attributes
}

var dataTestAttrs = []string{"data-testid", "data-cy", "data-test", "data-e2e", "data-qa"}

// dynamicClassRE rejects class names unlikely to be stable test identifiers:
// hash-like strings, long numbers, and tooling-generated prefixes.
var dynamicClassRE = regexp.MustCompile(`^(js-|react-|css-|sc-|_|[a-f0-9]{6,}$|\d{3,}$)`)

// Synthesize produces the full fallback chain for el, in strict preference
// order. Only tiers that can produce a usable expression are included.
func Synthesize(el Element) []Locator {
	var out []Locator

	if loc, ok := roleARIA(el); ok {
		out = append(out, loc)
	}
	if loc, ok := dataTest(el); ok {
		out = append(out, loc)
	}
	if loc, ok := semantic(el); ok {
		out = append(out, loc)
	}
	if loc, ok := cssFallback(el); ok {
		out = append(out, loc)
	}
	out = append(out, xpathFallback(el))
	return out
}

// Chain renders a "then-try" combinator expression: each fallback only
// applies if prior selectors resolve nothing (spec.md §4.5).
func Chain(locators []Locator) string {
	exprs := make([]string, len(locators))
	for i, l := range locators {
		exprs[i] = l.Expression
	}
	return strings.Join(exprs, " >> or_else >> ")
}

func roleARIA(el Element) (Locator, bool) {
	role := el.Role
	if role == "" {
		role = inferredRole(el.Tag)
	}
	switch {
	case role != "" && el.AriaLabel != "":
		return Locator{TierRoleARIA, fmt.Sprintf(`role=%s[name=%q]`, role, el.AriaLabel)}, true
	case role != "":
		return Locator{TierRoleARIA, fmt.Sprintf(`role=%s`, role)}, true
	case el.AriaLabel != "":
		return Locator{TierRoleARIA, fmt.Sprintf(`[aria-label=%q]`, el.AriaLabel)}, true
	}
	return Locator{}, false
}

func inferredRole(tag string) string {
	switch strings.ToLower(tag) {
	case "button":
		return "button"
	case "a":
		return "link"
	case "input":
		return "textbox"
	case "select":
		return "combobox"
	default:
		return ""
	}
}

func dataTest(el Element) (Locator, bool) {
	for _, attr := range dataTestAttrs {
		if v, ok := el.Attrs[attr]; ok && v != "" {
			return Locator{TierDataTest, fmt.Sprintf(`[%s=%q]`, attr, v)}, true
		}
	}
	return Locator{}, false
}

func semantic(el Element) (Locator, bool) {
	switch {
	case el.ID != "":
		return Locator{TierSemantic, "#" + el.ID}, true
	case el.Name != "":
		return Locator{TierSemantic, fmt.Sprintf(`[name=%q]`, el.Name)}, true
	case el.Placeholder != "":
		return Locator{TierSemantic, fmt.Sprintf(`[placeholder=%q]`, el.Placeholder)}, true
	case el.Text != "":
		return Locator{TierSemantic, fmt.Sprintf(`text=%q`, el.Text)}, true
	}
	return Locator{}, false
}

func cssFallback(el Element) (Locator, bool) {
	expr := el.Tag
	if expr == "" {
		expr = "*"
	}
	if el.Name != "" {
		return Locator{TierCSSFallback, fmt.Sprintf(`%s[name=%q]`, expr, el.Name)}, true
	}
	if el.ID != "" {
		return Locator{TierCSSFallback, expr + "#" + el.ID}, true
	}
	for _, c := range el.Classes {
		if !dynamicClassRE.MatchString(c) {
			return Locator{TierCSSFallback, expr + "." + c}, true
		}
	}
	return Locator{}, false
}

func xpathFallback(el Element) Locator {
	tag := el.Tag
	if tag == "" {
		tag = "*"
	}
	keys := make([]string, 0, len(el.Attrs))
	for k := range el.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var conds []string
	for _, k := range keys {
		conds = append(conds, fmt.Sprintf(`contains(@%s, %q)`, k, el.Attrs[k]))
	}
	if len(conds) == 0 {
		return Locator{TierXPathFallback, fmt.Sprintf("//%s", tag)}
	}
	return Locator{TierXPathFallback, fmt.Sprintf("//%s[%s]", tag, strings.Join(conds, " and "))}
}
