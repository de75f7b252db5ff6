package schema

import (
	"sync"

	"storefront/internal/models"
)

// DefaultName is the name under which the built-in configuration is installed
const DefaultName = "default"

var defaultDocument = []byte(`{
  "version": "1.0.0",
  "name": "default",
  "description": "Built-in storefront configuration",
  "branding": {
    "companyName": "Glow Essentials",
    "primaryColor": "#14B8A6",
    "secondaryColor": "#06B6D4",
    "accentColor": "#F59E0B"
  },
  "productIds": [],
  "content": {
    "tagline": {
      "en": "Premium skincare products for radiant, healthy skin."
    },
    "sections": {
      "en": {
        "hero.title": "Transform Your Skin",
        "hero.subtitle": "Premium Skincare Products",
        "products.title": "Featured Products"
      }
    }
  },
  "seo": {
    "title": {"en": "Glow Essentials - Premium Skincare Products"},
    "description": {"en": "Discover premium skincare products that will transform your routine."}
  },
  "store": {
    "currency": "USD",
    "defaultLocale": "en"
  }
}`)

var (
	defaultOnce   sync.Once
	defaultConfig *models.Configuration
)

// Default returns the built-in minimal configuration
func Default() *models.Configuration {
	defaultOnce.Do(func() {
		cfg, err := Validate(defaultDocument)
		if err != nil {
			panic("schema: built-in default configuration is invalid: " + err.Error())
		}
		defaultConfig = cfg
	})
	return defaultConfig.Clone()
}
