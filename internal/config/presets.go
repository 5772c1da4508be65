package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// presetFile is the on-disk shape of a --preset_file: a flat map of preset
// name to a partial override of Config's field values. Unlike the teacher's
// GetPredefinedConfigs() (a Go function returning *Config literals), presets
// here live in an editable YAML file so operators can add scenarios without
// recompiling.
type presetFile map[string]presetOverride

type presetOverride struct {
	TouristsTotal   *int     `yaml:"tourists_total"`
	N               *int     `yaml:"N"`
	M               *int     `yaml:"M"`
	P               *int     `yaml:"P"`
	X1              *int     `yaml:"X1"`
	X2              *int     `yaml:"X2"`
	X3              *int     `yaml:"X3"`
	FerryTMs        *int     `yaml:"ferry_T_ms"`
	DurationMs      *int     `yaml:"duration_ms"`
	ArrivalJitterMs *int     `yaml:"arrival_jitter_ms"`
	Seed            *uint64  `yaml:"seed"`
	Signal1Prob     *float64 `yaml:"signal1_prob"`
	Signal2Prob     *float64 `yaml:"signal2_prob"`
	SegmentMinMs    *int     `yaml:"segment_min_ms"`
	SegmentMaxMs    *int     `yaml:"segment_max_ms"`
	BridgeMinMs     *int     `yaml:"bridge_min_ms"`
	BridgeMaxMs     *int     `yaml:"bridge_max_ms"`
	TowerMinMs      *int     `yaml:"tower_min_ms"`
	TowerMaxMs      *int     `yaml:"tower_max_ms"`
	VipProb         *float64 `yaml:"vip_prob"`
}

// LoadPresets reads a YAML preset file as written by an operator.
func LoadPresets(path string) (presetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read preset file %q: %w", path, err)
	}

	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("config: parse preset file %q: %w", path, err)
	}
	return pf, nil
}

// ApplyPreset overlays the named preset's non-nil fields onto cfg. It is the
// caller's responsibility to apply explicit CLI flags after this call so
// flags win over preset values, matching the "flags override preset" rule.
func ApplyPreset(cfg *Config, pf presetFile, name string) error {
	if name == "" {
		return nil
	}
	o, ok := pf[name]
	if !ok {
		return fmt.Errorf("config: preset %q not found", name)
	}

	applyIntPtr(&cfg.TouristsTotal, o.TouristsTotal)
	applyIntPtr(&cfg.N, o.N)
	applyIntPtr(&cfg.M, o.M)
	applyIntPtr(&cfg.P, o.P)
	applyIntPtr(&cfg.X1, o.X1)
	applyIntPtr(&cfg.X2, o.X2)
	applyIntPtr(&cfg.X3, o.X3)
	applyIntPtr(&cfg.FerryTMs, o.FerryTMs)
	applyIntPtr(&cfg.DurationMs, o.DurationMs)
	applyIntPtr(&cfg.ArrivalJitterMs, o.ArrivalJitterMs)
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	applyFloatPtr(&cfg.Signal1Prob, o.Signal1Prob)
	applyFloatPtr(&cfg.Signal2Prob, o.Signal2Prob)
	applyIntPtr(&cfg.SegmentMinMs, o.SegmentMinMs)
	applyIntPtr(&cfg.SegmentMaxMs, o.SegmentMaxMs)
	applyIntPtr(&cfg.BridgeMinMs, o.BridgeMinMs)
	applyIntPtr(&cfg.BridgeMaxMs, o.BridgeMaxMs)
	applyIntPtr(&cfg.TowerMinMs, o.TowerMinMs)
	applyIntPtr(&cfg.TowerMaxMs, o.TowerMaxMs)
	applyFloatPtr(&cfg.VipProb, o.VipProb)

	return nil
}

func applyIntPtr(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyFloatPtr(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
