package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const (
	// EnvFileVar names an explicit dotenv file and disables the upward search.
	EnvFileVar = "FOLIO_ENV_FILE"
	// NoDotenvVar set to 1 skips dotenv loading entirely (CI, containers).
	NoDotenvVar = "FOLIO_NO_DOTENV"
	// OverloadVar set to 1 lets dotenv values replace variables already set.
	OverloadVar = "FOLIO_DOTENV_OVERLOAD"
)

var dotenvOnce sync.Once

// LoadDotenvOnce populates the process environment from a .env file so that
// ${VAR} placeholders in config files resolve. Only the first call does work.
func LoadDotenvOnce() {
	dotenvOnce.Do(func() {
		loadDotenv(sourceDir())
	})
}

func loadDotenv(start string) {
	if os.Getenv(NoDotenvVar) == "1" {
		return
	}

	load := godotenv.Load
	if os.Getenv(OverloadVar) == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv(EnvFileVar); envFile != "" {
		_ = load(envFile)
		return
	}
	if start == "" {
		_ = load(".env")
		return
	}

	// Walk up to the module root, picking up every .env on the way. Values
	// found first win unless overloading.
	dir := start
	for i := 0; i < maxWalkDepth; i++ {
		if candidate := filepath.Join(dir, ".env"); fileExists(candidate) {
			_ = load(candidate)
		}
		if isModuleRoot(dir) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
