package sayit

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultLanguageLabel is the label selected by default when available.
const DefaultLanguageLabel = "English"

// Language represents a language supported by a synthesis provider.
type Language struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// Collision records a provider entry that was dropped because its label
// or code was already taken by an earlier entry.
type Collision struct {
	Kept    Language
	Dropped Language
}

// String returns a human readable description of the collision.
func (c Collision) String() string {
	return fmt.Sprintf("kept=%s(%s) dropped=%s(%s)", c.Kept.Label, c.Kept.Code, c.Dropped.Label, c.Dropped.Code)
}

// Catalog is an immutable index of provider languages by display label.
// It is safe for concurrent use since it is never modified after creation.
type Catalog struct {
	languages  []Language
	codes      map[string]string // label -> code
	collisions []Collision
}

// NewCatalog returns a catalog built from entries.
//
// Labels and codes are unique within a catalog. When a provider reports
// the same label (or code) twice the first entry wins and the later one
// is recorded as a collision.
func NewCatalog(entries []Language) *Catalog {
	c := &Catalog{codes: make(map[string]string, len(entries))}

	byCode := make(map[string]Language, len(entries))
	byLabel := make(map[string]Language, len(entries))
	for _, e := range entries {
		e.Label, e.Code = strings.TrimSpace(e.Label), strings.TrimSpace(e.Code)
		if e.Label == "" || e.Code == "" {
			continue
		}

		if kept, ok := byLabel[e.Label]; ok {
			c.collisions = append(c.collisions, Collision{Kept: kept, Dropped: e})
			continue
		} else if kept, ok := byCode[e.Code]; ok {
			c.collisions = append(c.collisions, Collision{Kept: kept, Dropped: e})
			continue
		}

		byLabel[e.Label], byCode[e.Code] = e, e
		c.codes[e.Label] = e.Code
		c.languages = append(c.languages, e)
	}

	// Sort for display.
	sort.SliceStable(c.languages, func(i, j int) bool {
		return strings.ToLower(c.languages[i].Label) < strings.ToLower(c.languages[j].Label)
	})

	return c
}

// Lookup returns the provider code for a display label.
func (c *Catalog) Lookup(label string) (string, error) {
	code, ok := c.codes[label]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, label)
	}
	return code, nil
}

// Len returns the number of languages in the catalog.
func (c *Catalog) Len() int { return len(c.languages) }

// Languages returns a copy of the catalog entries in display order.
func (c *Catalog) Languages() []Language {
	a := make([]Language, len(c.languages))
	copy(a, c.languages)
	return a
}

// Labels returns the display labels in display order.
func (c *Catalog) Labels() []string {
	a := make([]string, len(c.languages))
	for i := range c.languages {
		a[i] = c.languages[i].Label
	}
	return a
}

// DefaultLabel returns DefaultLanguageLabel if present, otherwise the
// first label. Returns a blank string for an empty catalog.
func (c *Catalog) DefaultLabel() string {
	if _, ok := c.codes[DefaultLanguageLabel]; ok {
		return DefaultLanguageLabel
	} else if len(c.languages) > 0 {
		return c.languages[0].Label
	}
	return ""
}

// Collisions returns the entries dropped while building the catalog.
func (c *Catalog) Collisions() []Collision {
	a := make([]Collision, len(c.collisions))
	copy(a, c.collisions)
	return a
}
