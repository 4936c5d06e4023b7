package config

import "os"

// SeedConfig describes the bootstrap admin account.
type SeedConfig struct {
	Email    string
	Password string
	Name     string
}

// LoadSeedConfig reads SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD and
// SEED_ADMIN_NAME.  Command-line flags may override them.
func LoadSeedConfig() SeedConfig {
	e := &env{lookup: os.LookupEnv}
	return SeedConfig{
		Email:    e.get("SEED_ADMIN_EMAIL"),
		Password: e.get("SEED_ADMIN_PASSWORD"),
		Name:     e.str("SEED_ADMIN_NAME", "Admin"),
	}
}
