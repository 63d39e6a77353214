// cmd/harborwatch/main.go
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/FairForge/harborwatch/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("harborwatch: load .env: " + err.Error() + "\n")
	}

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
