// Package schema validates storefront configuration documents and produces
// fully defaulted models.Configuration values.
package schema

import (
	"encoding/json"
	"fmt"

	"storefront/internal/models"
)

const (
	defaultCurrency = "USD"
	defaultLocale   = "en"
)

// Validate checks a raw JSON document. It returns either a complete
// configuration or a *models.ValidationError carrying every violation.
func Validate(raw []byte) (*models.Configuration, error) {
	root, err := parse(raw)
	if err != nil {
		return nil, &models.ValidationError{Violations: []models.Violation{
			{Reason: fmt.Sprintf("invalid JSON: %v", err)},
		}}
	}
	return validateRoot(root)
}

// Revalidate serializes an existing configuration and validates it again
func Revalidate(cfg *models.Configuration) (*models.Configuration, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}
	return Validate(raw)
}

func validateRoot(root *node) (*models.Configuration, error) {
	c := &checker{}
	if root.kind != kindObject {
		c.fail("", "configuration must be a JSON object, got %s", root.kind)
		return nil, &models.ValidationError{Violations: c.violations}
	}

	cfg := &models.Configuration{
		Version:     c.optionalString(root, "", "version", models.DefaultVersion),
		Name:        c.requiredString(root, "", "name"),
		Description: c.optionalString(root, "", "description", ""),
		Branding:    validateBranding(c, root),
		ProductIDs:  c.stringList(root, "", "productIds", true),
		Assets:      c.assets(root, "", "assets"),
		Store:       validateStore(c, root),
		Features:    validateFeatures(c, root),
	}
	if cfg.ProductIDs == nil {
		cfg.ProductIDs = []string{}
	}
	cfg.Content = validateContent(c, root)
	cfg.SEO = validateSEO(c, root, cfg)

	if len(c.violations) > 0 {
		return nil, &models.ValidationError{Violations: c.violations}
	}
	return cfg, nil
}

func validateBranding(c *checker, root *node) models.Branding {
	const path = "branding"
	n := c.object(root, "", path, true)
	if n == nil {
		return models.Branding{}
	}

	b := models.Branding{
		CompanyName:    c.requiredString(n, path, "companyName"),
		PrimaryColor:   c.hexColor(n, path, "primaryColor", true),
		SecondaryColor: c.hexColor(n, path, "secondaryColor", false),
		AccentColor:    c.hexColor(n, path, "accentColor", false),
		Logo:           c.absoluteURL(n, path, "logo"),
		Favicon:        c.absoluteURL(n, path, "favicon"),
	}
	if b.SecondaryColor == "" {
		b.SecondaryColor = b.PrimaryColor
	}
	if b.AccentColor == "" {
		b.AccentColor = b.PrimaryColor
	}
	return b
}

func validateContent(c *checker, root *node) models.Content {
	const path = "content"
	n := c.object(root, "", path, true)
	if n == nil {
		return models.Content{Sections: models.NewLocaleSections(nil, nil)}
	}

	tagline, _ := c.localeText(n, path, "tagline", true)
	return models.Content{
		Tagline:  tagline,
		Sections: c.localeSections(n, path, "sections"),
	}
}

func validateSEO(c *checker, root *node, cfg *models.Configuration) models.SEO {
	const path = "seo"
	n := c.object(root, "", path, false)

	seo := models.SEO{}
	var hasTitle, hasDescription bool
	if n != nil {
		seo.Title, hasTitle = c.localeText(n, path, "title", false)
		seo.Description, hasDescription = c.localeText(n, path, "description", false)
		seo.Keywords = c.stringList(n, path, "keywords", false)
		seo.OGImage = c.absoluteURL(n, path, "ogImage")
	}
	if !hasTitle {
		seo.Title = models.LocaleTextOf(cfg.Store.DefaultLocale, cfg.Branding.CompanyName)
	}
	if !hasDescription {
		seo.Description = cfg.Content.Tagline
	}
	return seo
}

func validateStore(c *checker, root *node) models.StoreSettings {
	const path = "store"
	s := models.StoreSettings{
		Currency:      defaultCurrency,
		DefaultLocale: defaultLocale,
	}
	n := c.object(root, "", path, false)
	if n == nil {
		return s
	}

	s.StoreID = c.optionalString(n, path, "storeId", "")
	if cur := c.optionalString(n, path, "currency", defaultCurrency); currencyPattern.MatchString(cur) {
		s.Currency = cur
	} else {
		c.fail(join(path, "currency"), "must be a 3-letter upper-case currency code")
	}
	if loc := c.optionalString(n, path, "defaultLocale", defaultLocale); c.localeCode(join(path, "defaultLocale"), loc) {
		s.DefaultLocale = loc
	}
	s.Promotions = c.promotions(n, path, "promotions")
	return s
}

func validateFeatures(c *checker, root *node) models.Features {
	const path = "features"
	n := c.object(root, "", path, false)
	return models.Features{
		Cart:     c.boolean(n, path, "cart", true),
		Checkout: c.boolean(n, path, "checkout", true),
		Search:   c.boolean(n, path, "search", true),
		Wishlist: c.boolean(n, path, "wishlist", false),
		Reviews:  c.boolean(n, path, "reviews", false),
	}
}

// IsValid reports whether raw is a valid configuration document
func IsValid(raw []byte) bool {
	_, err := Validate(raw)
	return err == nil
}
