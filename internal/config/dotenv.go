package config

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.local then .env from the working directory. Vars that
// are already set in the environment win, matching godotenv's behavior.
// Missing files are fine; unreadable files are fatal.
func LoadDotEnv(logPrefix string) {
	for _, p := range []string{".env.local", ".env"} {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			log.Fatalf("%s failed to load %s: %v", logPrefix, p, err)
		}
		log.Printf("%s loaded env from %s", logPrefix, p)
	}
}
