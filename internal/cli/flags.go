package cli

import "dtp/internal/config"

// Flags holds command-line flags
type Flags struct {
	Processors int
	Migrate    bool
	NoFresh    bool
	TestPath   string
	NameFilter string
	TestCases  bool
	FailFast   bool
	OnlyFailed bool
	OpenFaills bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors: f.Processors,
		Migrate:    f.Migrate,
		NoFresh:    f.NoFresh,
		TestPath:   f.TestPath,
		NameFilter: f.NameFilter,
		TestCases:  f.TestCases,
		FailFast:   f.FailFast,
		OnlyFailed: f.OnlyFailed,
		OpenFaills: f.OpenFaills,
	}
}
