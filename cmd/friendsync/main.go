package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; when present it feeds the FRIENDSYNC_*
	// variables before config reads them.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fatalf("%v", err)
	}
}
