package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags reads command-line flags into a [StructuredConfig] layer.
//
// A dedicated FlagSet is used instead of the global one so the function can
// be called repeatedly from tests without flag-redefinition panics; unknown
// flags are tolerated by ignoring the parse error.
func ParseFlags() *StructuredConfig {
	return parseFlags(os.Args[1:])
}

func parseFlags(args []string) *StructuredConfig {
	fs := flag.NewFlagSet("auth-storage", flag.ContinueOnError)

	var (
		address         string
		driver          string
		dsn             string
		tokenLifetime   int64
		shutdownTimeout time.Duration
		configPath      string
	)

	fs.StringVar(&address, "a", "", "address of the HTTP health server")
	fs.StringVar(&driver, "driver", "", "database driver: postgres or sqlite")
	fs.StringVar(&dsn, "d", "", "database connection string")
	fs.Int64Var(&tokenLifetime, "l", 0, "session token lifetime in seconds")
	fs.DurationVar(&shutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	fs.StringVar(&configPath, "c", "", "path to a JSON config file")
	fs.StringVar(&configPath, "config", "", "path to a JSON config file")

	_ = fs.Parse(args)

	return &StructuredConfig{
		App: App{
			TokenLifetime: tokenLifetime,
		},
		Storage: Storage{
			DB: DB{
				Driver: driver,
				DSN:    dsn,
			},
		},
		Server: Server{
			HTTPAddress:     address,
			ShutdownTimeout: shutdownTimeout,
		},
		JSONFilePath: configPath,
	}
}
