package config

// CodesRules holds the business limits of code maintenance.
type CodesRules struct {
	// Category constraints
	KeyLength       int
	MaxNameLength   int
	MaxRemarkLength int

	// Batch limits
	MaxBatchItems int

	// Search paging
	DefaultPageSize int
	MaxPageSize     int

	// Authentication
	LoginLockoutThreshold int

	// Seed shape used by the in-memory and sqlite stores
	SeedMajors       int
	SeedMidsPerMajor int
	SeedSubsPerMid   int
}

// DefaultCodesRules returns the rules the warehouse UI was built against.
func DefaultCodesRules() *CodesRules {
	return &CodesRules{
		KeyLength:       3,
		MaxNameLength:   120,
		MaxRemarkLength: 240,

		MaxBatchItems: 500,

		DefaultPageSize: 20,
		MaxPageSize:     100,

		LoginLockoutThreshold: 6,

		SeedMajors:       50,
		SeedMidsPerMajor: 20,
		SeedSubsPerMid:   10,
	}
}

// TestCodesRules returns a smaller seed for fast test runs.
func TestCodesRules() *CodesRules {
	rules := DefaultCodesRules()
	rules.SeedMajors = 5
	rules.SeedMidsPerMajor = 4
	rules.SeedSubsPerMid = 3
	return rules
}

// LoadCodesRules picks the rules for an environment.
func LoadCodesRules(environment string) *CodesRules {
	switch environment {
	case "test":
		return TestCodesRules()
	default:
		return DefaultCodesRules()
	}
}
