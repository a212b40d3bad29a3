// Package main запускает административную утилиту системы учёта показаний.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mmeshcher/meter-reading-system/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
