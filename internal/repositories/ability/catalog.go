package ability

import (
	"context"
	_ "embed"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Abilities []*entities.Ability `yaml:"abilities"`
}

var _ Repository = (*catalog)(nil)

// catalog never changes after construction so it needs no locking
type catalog struct {
	ordered []*entities.Ability
	byKey   map[string]*entities.Ability
}

// NewDefault loads the built-in catalog
func NewDefault() (Repository, error) {
	return NewFromYAML(defaultCatalog)
}

// NewFromYAML loads a catalog document
func NewFromYAML(data []byte) (Repository, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse ability catalog")
	}
	return New(file.Abilities)
}

// New builds a catalog from abilities, validating keys, types and
// prerequisite references
func New(abilities []*entities.Ability) (Repository, error) {
	c := &catalog{
		ordered: make([]*entities.Ability, 0, len(abilities)),
		byKey:   make(map[string]*entities.Ability, len(abilities)),
	}

	vb := errors.NewValidationBuilder()
	for i, a := range abilities {
		if a == nil || a.Key == "" {
			vb.Fieldf("abilities", "entry %d has no key", i)
			continue
		}
		if _, dup := c.byKey[a.Key]; dup {
			vb.Fieldf(a.Key, "duplicate key")
			continue
		}
		if !slices.Contains([]entities.AbilityType{
			entities.AbilityTypeSkill, entities.AbilityTypeTalent, entities.AbilityTypeSpell,
		}, a.Type) {
			vb.Fieldf(a.Key, "unknown type %q", a.Type)
		}
		if a.SpellSlotLevel < 0 || a.SpellSlotLevel > 9 {
			vb.Fieldf(a.Key, "spell slot level %d outside 0-9", a.SpellSlotLevel)
		} else if a.SpellSlotLevel > 0 && !a.IsSpell() {
			vb.Fieldf(a.Key, "only spells use spell slots")
		}
		if a.MinLevel < 1 {
			a.MinLevel = 1
		}
		c.byKey[a.Key] = a
		c.ordered = append(c.ordered, a)
	}
	for _, a := range c.ordered {
		for _, prereq := range a.Prerequisites {
			if _, ok := c.byKey[prereq]; !ok {
				vb.Fieldf(a.Key, "unknown prerequisite %q", prereq)
			}
		}
	}
	if err := vb.Build(); err != nil {
		return nil, errors.Wrap(err, "invalid ability catalog")
	}

	return c, nil
}

func (c *catalog) List(_ context.Context, _ ListInput) (*ListOutput, error) {
	return &ListOutput{Abilities: slices.Clone(c.ordered)}, nil
}

func (c *catalog) Get(_ context.Context, input GetInput) (*GetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument("ability key cannot be empty")
	}

	a, ok := c.byKey[input.Key]
	if !ok {
		return nil, errors.NotFoundf("ability %s not found", input.Key)
	}

	return &GetOutput{Ability: a}, nil
}
