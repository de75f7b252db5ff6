package schema

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"storefront/internal/models"

	"golang.org/x/text/language"
)

var (
	hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// checker collects violations while rules walk the document
type checker struct {
	violations []models.Violation
}

func (c *checker) fail(path, format string, args ...interface{}) {
	c.violations = append(c.violations, models.Violation{
		Path:   path,
		Reason: fmt.Sprintf(format, args...),
	})
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func (c *checker) expect(n *node, path string, k kind) bool {
	if n.kind != k {
		c.fail(path, "must be %s %s, got %s", article(k), k, n.kind)
		return false
	}
	return true
}

func article(k kind) string {
	if k == kindArray || k == kindObject {
		return "an"
	}
	return "a"
}

// object returns parent[key] when it is an object
func (c *checker) object(parent *node, path, key string, required bool) *node {
	p := join(path, key)
	n := parent.get(key)
	if !present(n) {
		if required {
			c.fail(p, "is required")
		}
		return nil
	}
	if !c.expect(n, p, kindObject) {
		return nil
	}
	return n
}

func (c *checker) requiredString(parent *node, path, key string) string {
	p := join(path, key)
	n := parent.get(key)
	if !present(n) {
		c.fail(p, "is required")
		return ""
	}
	if !c.expect(n, p, kindString) {
		return ""
	}
	if strings.TrimSpace(n.str) == "" {
		c.fail(p, "must not be empty")
		return ""
	}
	return n.str
}

func (c *checker) optionalString(parent *node, path, key, def string) string {
	p := join(path, key)
	n := parent.get(key)
	if !present(n) {
		return def
	}
	if !c.expect(n, p, kindString) {
		return def
	}
	return n.str
}

func (c *checker) boolean(parent *node, path, key string, def bool) bool {
	p := join(path, key)
	n := parent.get(key)
	if !present(n) {
		return def
	}
	if !c.expect(n, p, kindBool) {
		return def
	}
	return n.b
}

func (c *checker) hexColor(parent *node, path, key string, required bool) string {
	var v string
	if required {
		v = c.requiredString(parent, path, key)
	} else {
		v = c.optionalString(parent, path, key, "")
	}
	if v != "" && !hexColorPattern.MatchString(v) {
		c.fail(join(path, key), "must be a 6-digit hex color like #14B8A6")
		return ""
	}
	return v
}

func (c *checker) absoluteURL(parent *node, path, key string) string {
	v := c.optionalString(parent, path, key, "")
	if v == "" {
		return ""
	}
	if !isAbsoluteURL(v) {
		c.fail(join(path, key), "must be an absolute http(s) URL")
		return ""
	}
	return v
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c *checker) localeCode(path, code string) bool {
	if _, err := language.Parse(code); err != nil {
		c.fail(path, "%q is not a valid locale code", code)
		return false
	}
	return true
}

// localeText validates a non-empty object of locale code to string.
// ok is false when the key is absent.
func (c *checker) localeText(parent *node, path, key string, required bool) (text models.LocaleText, ok bool) {
	n := c.object(parent, path, key, required)
	if n == nil {
		return models.LocaleText{}, false
	}
	p := join(path, key)
	if len(n.keys) == 0 {
		c.fail(p, "must define at least one locale")
		return models.LocaleText{}, true
	}

	locales := make([]string, 0, len(n.keys))
	values := make(map[string]string, len(n.keys))
	for _, locale := range n.keys {
		lp := join(p, locale)
		if !c.localeCode(lp, locale) {
			continue
		}
		v := n.props[locale]
		if !c.expect(v, lp, kindString) {
			continue
		}
		locales = append(locales, locale)
		values[locale] = v.str
	}
	return models.NewLocaleText(locales, values), true
}

func (c *checker) localeSections(parent *node, path, key string) models.LocaleSections {
	n := c.object(parent, path, key, false)
	if n == nil {
		return models.NewLocaleSections(nil, nil)
	}
	p := join(path, key)

	var locales []string
	sections := make(map[string]map[string]string, len(n.keys))
	for _, locale := range n.keys {
		lp := join(p, locale)
		if !c.localeCode(lp, locale) {
			continue
		}
		inner := n.props[locale]
		if !c.expect(inner, lp, kindObject) {
			continue
		}
		values := make(map[string]string, len(inner.keys))
		for _, sectionKey := range inner.keys {
			v := inner.props[sectionKey]
			if !c.expect(v, join(lp, sectionKey), kindString) {
				continue
			}
			values[sectionKey] = v.str
		}
		locales = append(locales, locale)
		sections[locale] = values
	}
	return models.NewLocaleSections(locales, sections)
}

// stringList validates an optional array of non-empty strings.
// With unique set, repeated values are violations.
func (c *checker) stringList(parent *node, path, key string, unique bool) []string {
	p := join(path, key)
	n := parent.get(key)
	if !present(n) {
		return nil
	}
	if !c.expect(n, p, kindArray) {
		return nil
	}

	var out []string
	seen := make(map[string]bool, len(n.items))
	for i, item := range n.items {
		ip := index(p, i)
		if !c.expect(item, ip, kindString) {
			continue
		}
		if strings.TrimSpace(item.str) == "" {
			c.fail(ip, "must not be empty")
			continue
		}
		if unique && seen[item.str] {
			c.fail(ip, "duplicate value %q", item.str)
			continue
		}
		seen[item.str] = true
		out = append(out, item.str)
	}
	return out
}

func (c *checker) assets(parent *node, path, key string) map[string]string {
	n := c.object(parent, path, key, false)
	if n == nil || len(n.keys) == 0 {
		return nil
	}
	p := join(path, key)
	out := make(map[string]string, len(n.keys))
	for _, name := range n.keys {
		ap := join(p, name)
		v := n.props[name]
		if !c.expect(v, ap, kindString) {
			continue
		}
		if !isAbsoluteURL(v.str) {
			c.fail(ap, "must be an absolute http(s) URL")
			continue
		}
		out[name] = v.str
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *checker) promotions(parent *node, path, key string) []models.Promotion {
	p := join(path, key)
	n := parent.get(key)
	if !present(n) {
		return nil
	}
	if !c.expect(n, p, kindArray) {
		return nil
	}

	var out []models.Promotion
	seen := make(map[string]bool, len(n.items))
	for i, item := range n.items {
		ip := index(p, i)
		if !c.expect(item, ip, kindObject) {
			continue
		}
		promo := models.Promotion{
			ID:          c.requiredString(item, ip, "id"),
			Name:        c.requiredString(item, ip, "name"),
			Description: c.optionalString(item, ip, "description", ""),
			Active:      c.boolean(item, ip, "active", true),
		}
		if promo.ID == "" {
			continue
		}
		if seen[promo.ID] {
			c.fail(join(ip, "id"), "duplicate promotion id %q", promo.ID)
			continue
		}
		seen[promo.ID] = true
		out = append(out, promo)
	}
	return out
}
