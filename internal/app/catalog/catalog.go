// Package catalog serves the canned starter questions shown before a
// conversation begins.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

type QuickAction struct {
	Label    string `yaml:"label" json:"label"`
	Question string `yaml:"question" json:"question"`
}

type Catalog struct {
	QuickActions       map[domain.Language][]QuickAction `yaml:"quick_actions"`
	SuggestedQuestions []string                          `yaml:"suggested_questions"`
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(catalogYAML)
	})
	return loaded, loadErr
}

// Parse decodes a catalog and checks every supported language is present.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	for _, l := range domain.Languages() {
		if len(c.QuickActions[l]) == 0 {
			return nil, fmt.Errorf("catalog: no quick actions for %s", l)
		}
	}
	return &c, nil
}

// QuickActionsFor falls back to English for unknown languages. The result is a copy.
func (c *Catalog) QuickActionsFor(lang domain.Language) []QuickAction {
	actions, ok := c.QuickActions[lang]
	if !ok {
		actions = c.QuickActions[domain.DefaultLanguage]
	}
	return slices.Clone(actions)
}

func (c *Catalog) Suggestions() []string {
	return slices.Clone(c.SuggestedQuestions)
}
