package catalog

import "golang.org/x/crypto/bcrypt"

// Store kinds accepted in Config.Store.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Store      string `env:"CATALOG_STORE" envDefault:"memory"` // memory or postgres
	SeedFile   string `env:"SEED_FILE" envDefault:"sheetpool.yaml"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
}

func DefaultConfig() Config {
	return Config{
		Store:      StoreMemory,
		SeedFile:   "sheetpool.yaml",
		BcryptCost: bcrypt.DefaultCost,
	}
}
