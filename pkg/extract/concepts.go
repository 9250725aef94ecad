package extract

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/Rithanya654/Generic-RAG/internal/util"
)

//go:embed financial_concepts.json
var conceptsJSON []byte

// Concept is one canonical financial concept from the embedded registry.
type Concept struct {
	Name     string
	Category string
}

// ConceptRegistry maps normalized entity aliases to canonical global
// financial concepts.
type ConceptRegistry struct {
	byAlias map[string]Concept
}

// LoadConceptRegistry parses the embedded concept registry.
func LoadConceptRegistry() (*ConceptRegistry, error) {
	var raw map[string]struct {
		Category string   `json:"category"`
		Aliases  []string `json:"aliases"`
	}
	if err := json.Unmarshal(conceptsJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse concept registry: %w", err)
	}

	byAlias := map[string]Concept{}
	for name, meta := range raw {
		concept := Concept{Name: name, Category: meta.Category}
		for _, alias := range meta.Aliases {
			byAlias[util.NormalizeAliasKey(alias)] = concept
		}
	}
	return &ConceptRegistry{byAlias: byAlias}, nil
}

// Lookup resolves an entity name to its canonical concept. The name is
// normalized the same way aliases are, so casing and punctuation do not
// matter.
func (r *ConceptRegistry) Lookup(entityName string) (Concept, bool) {
	c, ok := r.byAlias[util.NormalizeAliasKey(entityName)]
	return c, ok
}
