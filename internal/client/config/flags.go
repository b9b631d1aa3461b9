package config

import (
	"flag"
	"os"

	"github.com/mkarpenko/cryptdrive/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-u", "-b", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the storage server")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "username to offer at the login prompt")
	fs.IntVar(&cfg.BufferSize, "b", cfg.BufferSize, "stream buffer size in bytes (1024/2048/4096/8192)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory for synced files")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
