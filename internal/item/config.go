package item

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/metabuild/internal/label"
)

// Config is a named bag of build settings that targets reference. A config
// may itself reference sub-configs whose values are folded in on resolution.
type Config struct {
	base

	// Values holds the raw settings declared on the config block. The
	// graph core treats them as opaque; downstream generators interpret
	// them.
	Values map[string]cty.Value

	SubConfigRefs []Ref
	SubConfigs    []*Config

	ResolveHook func() error
}

// NewConfig creates a config declared at def.
func NewConfig(l label.Label, def hcl.Range) *Config {
	return &Config{base: base{label: l, defRange: def}, Values: map[string]cty.Value{}}
}

func (c *Config) Kind() Kind { return KindConfig }

// OnResolved folds each sub-config's values into this config, keeping this
// config's own values on key collisions.
func (c *Config) OnResolved() error {
	for _, sub := range c.SubConfigs {
		for k, v := range sub.Values {
			if _, ok := c.Values[k]; !ok {
				c.Values[k] = v
			}
		}
	}
	if c.ResolveHook != nil {
		return c.ResolveHook()
	}
	return nil
}
