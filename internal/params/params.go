// Package params holds the simulation's tuning constants and the runtime
// configuration assembled from them plus CLI overrides.
package params

// Engine and arena defaults.
const (
	// NumEngines is the number of engines to run; 0 = autodetect
	NumEngines = 0

	// Arena dimensions
	Width  = 64
	Height = 64

	// Number of starting lifeforms to seed per engine
	StartingLifeforms = 10
)

// Asteroid settings.
const (
	// Max number of lifeforms that can be on the asteroid at once
	AsteroidSize = 128

	// Interval in turns between launching/landing a lifeform for any given
	// engine. 0 means never.
	AsteroidLaunchInterval uint64 = 12000
	AsteroidLandInterval   uint64 = 13000
)

// Lifeform energy costs.
const (
	// Base energy deducted per lifeform per turn
	CostOfLiving = 2.0

	// Energy cost of each DNA opcode per turn; added to cost of living.
	// Discourages large amounts of junk DNA which burn CPU cycles.
	CostOfOpcode = 0.01

	// Energy level required to split
	MeiosisLevel = 200.0

	// Energy lost by the parent on split
	MeiosisCost = 25.0

	// Energy cost of a random move
	RandomMoveCost = 1.0
)

// JSON dump settings.
const (
	JSONDumpIntervalSeconds = 60
)

// DNA mutation parameters.
const (
	// Maximum number of opcodes affected by one insert/delete/change/translate
	MaxMutationLength = 9

	// Max value of the mutation-check die roll; min is 0
	MutationDieRoll = 99

	// One mutation if die >= 93 (5%), two if die >= 98 (2%)
	OneMutation  = 93
	TwoMutations = 98
)

// Config carries the subset of parameters that may be overridden on the
// command line. Default fills it from the package constants; zero values
// are used as given (NumEngines 0 autodetects, DumpInterval 0 disables the
// dumper).
type Config struct {
	NumEngines        int
	Width             int
	Height            int
	StartingLifeforms int
	AsteroidSize      int
	DumpInterval      int // seconds; 0 disables the dumper
	FeedAddr          string
	MetricsAddr       string
	ReportPath        string
	Verbose           bool
}

// Default returns a Config mirroring the package constants.
func Default() Config {
	return Config{
		NumEngines:        NumEngines,
		Width:             Width,
		Height:            Height,
		StartingLifeforms: StartingLifeforms,
		AsteroidSize:      AsteroidSize,
		DumpInterval:      JSONDumpIntervalSeconds,
	}
}
