// Package locale picks localized strings out of configuration content.
//
// Resolution order is fixed: the requested locale, then the fallback locale,
// then the first locale declared in the document, then the empty string.
package locale

import "storefront/internal/models"

// DefaultFallback is used when callers do not supply a fallback locale
const DefaultFallback = "en"

// Resolve returns the best match for requested in text
func Resolve(text models.LocaleText, requested, fallback string) string {
	if v, ok := text.Get(requested); ok {
		return v
	}
	if v, ok := text.Get(fallback); ok {
		return v
	}
	if v, ok := text.First(); ok {
		return v
	}
	return ""
}

// ResolveDefault resolves with DefaultFallback
func ResolveDefault(text models.LocaleText, requested string) string {
	return Resolve(text, requested, DefaultFallback)
}

// ResolveSection applies the same order to sections[locale][key]
func ResolveSection(sections models.LocaleSections, key, requested, fallback string) string {
	if v, ok := sections.Get(requested, key); ok {
		return v
	}
	if v, ok := sections.Get(fallback, key); ok {
		return v
	}
	if locales := sections.Locales(); len(locales) > 0 {
		if v, ok := sections.Get(locales[0], key); ok {
			return v
		}
	}
	return ""
}

// Content is the storefront copy resolved for one locale
type Content struct {
	Locale         string            `json:"locale"`
	Tagline        string            `json:"tagline"`
	Sections       map[string]string `json:"sections"`
	SEOTitle       string            `json:"seoTitle"`
	SEODescription string            `json:"seoDescription"`
	SEOKeywords    []string          `json:"seoKeywords,omitempty"`
	OGImage        string            `json:"ogImage,omitempty"`
}

// ResolveContent resolves every localized field of cfg. An empty fallback uses
// the configuration's default locale.
func ResolveContent(cfg *models.Configuration, requested, fallback string) Content {
	if fallback == "" {
		fallback = cfg.Store.DefaultLocale
	}
	if requested == "" {
		requested = fallback
	}

	sections := make(map[string]string)
	for _, key := range sectionKeys(cfg.Content.Sections) {
		sections[key] = ResolveSection(cfg.Content.Sections, key, requested, fallback)
	}

	return Content{
		Locale:         requested,
		Tagline:        Resolve(cfg.Content.Tagline, requested, fallback),
		Sections:       sections,
		SEOTitle:       Resolve(cfg.SEO.Title, requested, fallback),
		SEODescription: Resolve(cfg.SEO.Description, requested, fallback),
		SEOKeywords:    cfg.SEO.Keywords,
		OGImage:        cfg.SEO.OGImage,
	}
}

// sectionKeys is the union of keys across all locales
func sectionKeys(sections models.LocaleSections) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, l := range sections.Locales() {
		for _, k := range sections.Keys(l) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
