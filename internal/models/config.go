package models

import (
	"bytes"
	"encoding/json"
)

// DefaultVersion is assumed when a document does not declare one
const DefaultVersion = "1.0.0"

// Configuration is a validated storefront configuration.
// Values are produced by the schema package and are fully defaulted;
// consumers must treat them as read-only.
type Configuration struct {
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Branding    Branding          `json:"branding"`
	ProductIDs  []string          `json:"productIds"`
	Content     Content           `json:"content"`
	Assets      map[string]string `json:"assets,omitempty"`
	SEO         SEO               `json:"seo"`
	Store       StoreSettings     `json:"store"`
	Features    Features          `json:"features"`
}

// Branding holds the merchant identity
type Branding struct {
	CompanyName    string `json:"companyName"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	Logo           string `json:"logo,omitempty"`
	Favicon        string `json:"favicon,omitempty"`
}

// Content holds localized copy
type Content struct {
	Tagline  LocaleText     `json:"tagline"`
	Sections LocaleSections `json:"sections"`
}

// SEO holds per-locale page metadata
type SEO struct {
	Title       LocaleText `json:"title"`
	Description LocaleText `json:"description"`
	Keywords    []string   `json:"keywords,omitempty"`
	OGImage     string     `json:"ogImage,omitempty"`
}

// StoreSettings links the configuration to the commerce platform store
type StoreSettings struct {
	StoreID       string      `json:"storeId,omitempty"`
	Currency      string      `json:"currency"`
	DefaultLocale string      `json:"defaultLocale"`
	Promotions    []Promotion `json:"promotions,omitempty"`
}

// Promotion is a platform promotion the storefront applies at checkout
type Promotion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// Features toggles storefront capabilities
type Features struct {
	Cart     bool `json:"cart"`
	Checkout bool `json:"checkout"`
	Search   bool `json:"search"`
	Wishlist bool `json:"wishlist"`
	Reviews  bool `json:"reviews"`
}

// ActivePromotionIDs returns the ids of active promotions in declaration order
func (s StoreSettings) ActivePromotionIDs() []string {
	var ids []string
	for _, p := range s.Promotions {
		if p.Active {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Clone returns a deep copy so callers cannot alter a cached value
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	out.ProductIDs = cloneStrings(c.ProductIDs)
	if c.Assets != nil {
		out.Assets = make(map[string]string, len(c.Assets))
		for k, v := range c.Assets {
			out.Assets[k] = v
		}
	}
	out.SEO.Keywords = cloneStrings(c.SEO.Keywords)
	if c.Store.Promotions != nil {
		out.Store.Promotions = make([]Promotion, len(c.Store.Promotions))
		copy(out.Store.Promotions, c.Store.Promotions)
	}
	// LocaleText and LocaleSections expose no mutators, sharing them is safe
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// LocaleText maps locale codes to strings and remembers the order in which
// locales were declared.
type LocaleText struct {
	locales []string
	values  map[string]string
}

// NewLocaleText builds a LocaleText from locales in order. Duplicate locales
// keep their first position and last value.
func NewLocaleText(locales []string, values map[string]string) LocaleText {
	t := LocaleText{values: make(map[string]string, len(locales))}
	for _, l := range locales {
		if _, seen := t.values[l]; !seen {
			t.locales = append(t.locales, l)
		}
		t.values[l] = values[l]
	}
	return t
}

// LocaleTextOf is a shorthand for a single-locale text
func LocaleTextOf(locale, value string) LocaleText {
	return NewLocaleText([]string{locale}, map[string]string{locale: value})
}

// Get returns the value for locale
func (t LocaleText) Get(locale string) (string, bool) {
	v, ok := t.values[locale]
	return v, ok
}

// Locales returns the locales in declaration order
func (t LocaleText) Locales() []string {
	return append([]string(nil), t.locales...)
}

// Len returns the number of locales
func (t LocaleText) Len() int {
	return len(t.locales)
}

// First returns the value of the first declared locale
func (t LocaleText) First() (string, bool) {
	if len(t.locales) == 0 {
		return "", false
	}
	return t.values[t.locales[0]], true
}

// MarshalJSON writes the object keys in declaration order
func (t LocaleText) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range t.locales {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKeyValue(&buf, l, t.values[l]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LocaleSections maps locale to section key to string
type LocaleSections struct {
	locales  []string
	sections map[string]map[string]string
}

// NewLocaleSections builds LocaleSections from locales in order
func NewLocaleSections(locales []string, sections map[string]map[string]string) LocaleSections {
	s := LocaleSections{sections: make(map[string]map[string]string, len(locales))}
	for _, l := range locales {
		if _, seen := s.sections[l]; !seen {
			s.locales = append(s.locales, l)
		}
		inner := make(map[string]string, len(sections[l]))
		for k, v := range sections[l] {
			inner[k] = v
		}
		s.sections[l] = inner
	}
	return s
}

// Get returns sections[locale][key]
func (s LocaleSections) Get(locale, key string) (string, bool) {
	inner, ok := s.sections[locale]
	if !ok {
		return "", false
	}
	v, ok := inner[key]
	return v, ok
}

// Locales returns the locales in declaration order
func (s LocaleSections) Locales() []string {
	return append([]string(nil), s.locales...)
}

// Keys returns the section keys declared for locale
func (s LocaleSections) Keys(locale string) []string {
	inner := s.sections[locale]
	keys := make([]string, 0, len(inner))
	for k := range inner {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of locales
func (s LocaleSections) Len() int {
	return len(s.locales)
}

// MarshalJSON writes locales in declaration order
func (s LocaleSections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range s.locales {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKeyValue(&buf, l, s.sections[l]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKeyValue(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
