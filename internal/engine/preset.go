package engine

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	yaml "gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetData []byte

// Preset names a fixed analysis effort level.
type Preset struct {
	Name        string `yaml:"name"`
	Depth       int    `yaml:"depth"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

func (p Preset) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSec) * time.Second
}

type presetCatalog struct {
	Default string   `yaml:"default"`
	Presets []Preset `yaml:"presets"`
}

var (
	presetOnce    sync.Once
	presetByName  map[string]Preset
	presetDefault Preset
	presetLoadErr error
)

func loadPresets() {
	var cat presetCatalog
	if err := yaml.Unmarshal(presetData, &cat); err != nil {
		presetLoadErr = fmt.Errorf("parse embedded presets: %w", err)
		return
	}
	if len(cat.Presets) == 0 {
		presetLoadErr = fmt.Errorf("embedded preset catalog is empty")
		return
	}
	presetByName = make(map[string]Preset, len(cat.Presets))
	for _, p := range cat.Presets {
		presetByName[strings.ToLower(p.Name)] = p
	}
	def, ok := presetByName[strings.ToLower(cat.Default)]
	if !ok {
		def = cat.Presets[0]
	}
	presetDefault = def
}

// GetPreset looks up a preset by name, case-insensitively. An empty name
// resolves to the catalog default.
func GetPreset(name string) (Preset, error) {
	presetOnce.Do(loadPresets)
	if presetLoadErr != nil {
		return Preset{}, presetLoadErr
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return presetDefault, nil
	}
	p, ok := presetByName[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown analysis preset %q", name)
	}
	return p, nil
}

func DefaultPreset() Preset {
	presetOnce.Do(loadPresets)
	return presetDefault
}
