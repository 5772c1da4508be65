// Package config parses and validates the park simulation's command-line
// configuration, following the same "parse into struct, then validate and
// default" split the teacher uses across main.go / config_validator.go.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// Config holds every tunable named in the external CLI contract.
type Config struct {
	TouristsTotal int
	N             int
	M             int
	P             int

	X1 int // bridge capacity
	X2 int // tower capacity
	X3 int // ferry capacity

	FerryTMs         int
	DurationMs       int
	ArrivalJitterMs  int
	Seed             uint64

	Signal1Prob float64
	Signal2Prob float64

	SegmentMinMs int
	SegmentMaxMs int
	BridgeMinMs  int
	BridgeMaxMs  int
	TowerMinMs   int
	TowerMaxMs   int

	VipProb float64

	LogPath    string
	PresetFile string
	Preset     string
}

// Default returns the configuration with every spec-mandated default filled
// in, before flags or a preset are applied.
func Default() *Config {
	return &Config{
		TouristsTotal:   80,
		N:               60,
		M:               6,
		P:               2,
		X1:              4,
		X2:              10,
		X3:              8,
		FerryTMs:        900,
		DurationMs:      30000,
		ArrivalJitterMs: 500,
		Seed:            12345,
		Signal1Prob:     0.10,
		Signal2Prob:     0.05,
		SegmentMinMs:    400,
		SegmentMaxMs:    1200,
		BridgeMinMs:     400,
		BridgeMaxMs:     1000,
		TowerMinMs:      700,
		TowerMaxMs:      1500,
		VipProb:         0.15,
		LogPath:         "",
	}
}

// ParseArgs parses args (excluding the program name) into a Config seeded
// with Default(). errOut receives usage text on --help/-h or on an unknown
// flag. The returned error is flag.ErrHelp when help was requested, and a
// plain error for any other parse failure (including unknown flags) so the
// caller can map the two to the distinct exit codes §6 requires.
func ParseArgs(args []string, errOut io.Writer) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("park", flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.IntVar(&cfg.TouristsTotal, "tourists_total", cfg.TouristsTotal, "number of visitors to spawn")
	fs.IntVar(&cfg.N, "N", cfg.N, "lifetime admission cap")
	fs.IntVar(&cfg.M, "M", cfg.M, "group size")
	fs.IntVar(&cfg.P, "P", cfg.P, "number of guide goroutines")
	fs.IntVar(&cfg.X1, "X1", cfg.X1, "bridge capacity (must be < M)")
	fs.IntVar(&cfg.X2, "X2", cfg.X2, "tower capacity (must be < 2M)")
	fs.IntVar(&cfg.X3, "X3", cfg.X3, "ferry capacity (must be < 1.5M)")
	fs.IntVar(&cfg.FerryTMs, "ferry_T_ms", cfg.FerryTMs, "ferry one-way duration in ms")
	fs.IntVar(&cfg.DurationMs, "duration_ms", cfg.DurationMs, "simulated park open duration in ms")
	fs.IntVar(&cfg.ArrivalJitterMs, "arrival_jitter_ms", cfg.ArrivalJitterMs, "max random delay between spawns in ms")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed")
	fs.Float64Var(&cfg.Signal1Prob, "signal1_prob", cfg.Signal1Prob, "per-step tower-evacuation draw")
	fs.Float64Var(&cfg.Signal2Prob, "signal2_prob", cfg.Signal2Prob, "per-segment abort draw")
	fs.IntVar(&cfg.SegmentMinMs, "segment_min_ms", cfg.SegmentMinMs, "min inter-stage walking time in ms")
	fs.IntVar(&cfg.SegmentMaxMs, "segment_max_ms", cfg.SegmentMaxMs, "max inter-stage walking time in ms")
	fs.IntVar(&cfg.BridgeMinMs, "bridge_min_ms", cfg.BridgeMinMs, "min bridge transit time in ms")
	fs.IntVar(&cfg.BridgeMaxMs, "bridge_max_ms", cfg.BridgeMaxMs, "max bridge transit time in ms")
	fs.IntVar(&cfg.TowerMinMs, "tower_min_ms", cfg.TowerMinMs, "min tower stay in ms")
	fs.IntVar(&cfg.TowerMaxMs, "tower_max_ms", cfg.TowerMaxMs, "max tower stay in ms")
	fs.Float64Var(&cfg.VipProb, "vip_prob", cfg.VipProb, "probability a spawned visitor is VIP")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "log file path (default: logs/sim-<run-id>.log)")
	fs.StringVar(&cfg.PresetFile, "preset_file", cfg.PresetFile, "optional YAML file of named presets")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "name of a preset to load from preset_file before applying flags")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Preset != "" {
		merged, err := resolvePreset(cfg, fs)
		if err != nil {
			return nil, err
		}
		cfg = merged
	}

	return cfg, nil
}

// resolvePreset loads cfg.PresetFile and overlays the named preset onto a
// fresh Default(), then re-applies every flag the caller explicitly passed
// on the command line (tracked via fs.Visit) so explicit flags always win
// over preset values, regardless of flag order.
func resolvePreset(flagCfg *Config, fs *flag.FlagSet) (*Config, error) {
	if flagCfg.PresetFile == "" {
		return nil, fmt.Errorf("config: preset %q requested without preset_file", flagCfg.Preset)
	}

	pf, err := LoadPresets(flagCfg.PresetFile)
	if err != nil {
		return nil, err
	}

	merged := Default()
	if err := ApplyPreset(merged, pf, flagCfg.Preset); err != nil {
		return nil, err
	}
	merged.LogPath = flagCfg.LogPath
	merged.PresetFile = flagCfg.PresetFile
	merged.Preset = flagCfg.Preset

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	copyExplicit(merged, flagCfg, explicit)

	return merged, nil
}

func copyExplicit(dst, src *Config, explicit map[string]bool) {
	type field struct {
		flag string
		copy func()
	}
	fields := []field{
		{"tourists_total", func() { dst.TouristsTotal = src.TouristsTotal }},
		{"N", func() { dst.N = src.N }},
		{"M", func() { dst.M = src.M }},
		{"P", func() { dst.P = src.P }},
		{"X1", func() { dst.X1 = src.X1 }},
		{"X2", func() { dst.X2 = src.X2 }},
		{"X3", func() { dst.X3 = src.X3 }},
		{"ferry_T_ms", func() { dst.FerryTMs = src.FerryTMs }},
		{"duration_ms", func() { dst.DurationMs = src.DurationMs }},
		{"arrival_jitter_ms", func() { dst.ArrivalJitterMs = src.ArrivalJitterMs }},
		{"seed", func() { dst.Seed = src.Seed }},
		{"signal1_prob", func() { dst.Signal1Prob = src.Signal1Prob }},
		{"signal2_prob", func() { dst.Signal2Prob = src.Signal2Prob }},
		{"segment_min_ms", func() { dst.SegmentMinMs = src.SegmentMinMs }},
		{"segment_max_ms", func() { dst.SegmentMaxMs = src.SegmentMaxMs }},
		{"bridge_min_ms", func() { dst.BridgeMinMs = src.BridgeMinMs }},
		{"bridge_max_ms", func() { dst.BridgeMaxMs = src.BridgeMaxMs }},
		{"tower_min_ms", func() { dst.TowerMinMs = src.TowerMinMs }},
		{"tower_max_ms", func() { dst.TowerMaxMs = src.TowerMaxMs }},
		{"vip_prob", func() { dst.VipProb = src.VipProb }},
	}
	for _, f := range fields {
		if explicit[f.flag] {
			f.copy()
		}
	}
}

// Validate applies the structural checks of §6/§3 and returns the first
// violation found, or nil. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	switch {
	case cfg.TouristsTotal <= 0:
		return fmt.Errorf("config: tourists_total must be positive, got %d", cfg.TouristsTotal)
	case cfg.N <= 0:
		return fmt.Errorf("config: N must be positive, got %d", cfg.N)
	case cfg.M <= 0:
		return fmt.Errorf("config: M must be positive, got %d", cfg.M)
	case cfg.P <= 0:
		return fmt.Errorf("config: P must be positive, got %d", cfg.P)
	case cfg.X1 <= 0 || cfg.X1 >= cfg.M:
		return fmt.Errorf("config: X1 must satisfy 0 < X1 < M, got X1=%d M=%d", cfg.X1, cfg.M)
	case cfg.X2 <= 0 || cfg.X2 >= 2*cfg.M:
		return fmt.Errorf("config: X2 must satisfy 0 < X2 < 2*M, got X2=%d M=%d", cfg.X2, cfg.M)
	case float64(cfg.X3) >= 1.5*float64(cfg.M) || cfg.X3 <= 0:
		return fmt.Errorf("config: X3 must satisfy 0 < X3 < 1.5*M, got X3=%d M=%d", cfg.X3, cfg.M)
	case cfg.FerryTMs <= 0:
		return fmt.Errorf("config: ferry_T_ms must be positive, got %d", cfg.FerryTMs)
	case cfg.DurationMs <= 0:
		return fmt.Errorf("config: duration_ms must be positive, got %d", cfg.DurationMs)
	case cfg.ArrivalJitterMs < 0:
		return fmt.Errorf("config: arrival_jitter_ms must be non-negative, got %d", cfg.ArrivalJitterMs)
	case cfg.Signal1Prob < 0 || cfg.Signal1Prob > 1:
		return fmt.Errorf("config: signal1_prob must be within [0,1], got %v", cfg.Signal1Prob)
	case cfg.Signal2Prob < 0 || cfg.Signal2Prob > 1:
		return fmt.Errorf("config: signal2_prob must be within [0,1], got %v", cfg.Signal2Prob)
	case cfg.VipProb < 0 || cfg.VipProb > 1:
		return fmt.Errorf("config: vip_prob must be within [0,1], got %v", cfg.VipProb)
	case cfg.SegmentMinMs <= 0 || cfg.SegmentMaxMs < cfg.SegmentMinMs:
		return fmt.Errorf("config: segment_min_ms/segment_max_ms invalid (%d/%d)", cfg.SegmentMinMs, cfg.SegmentMaxMs)
	case cfg.BridgeMinMs <= 0 || cfg.BridgeMaxMs < cfg.BridgeMinMs:
		return fmt.Errorf("config: bridge_min_ms/bridge_max_ms invalid (%d/%d)", cfg.BridgeMinMs, cfg.BridgeMaxMs)
	case cfg.TowerMinMs <= 0 || cfg.TowerMaxMs < cfg.TowerMinMs:
		return fmt.Errorf("config: tower_min_ms/tower_max_ms invalid (%d/%d)", cfg.TowerMinMs, cfg.TowerMaxMs)
	}

	return nil
}
