package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/supplyhub/backend/internal/infrastructure/config"
	"github.com/supplyhub/backend/internal/infrastructure/logger"
	"github.com/supplyhub/backend/internal/infrastructure/migration"
)

const usage = `SupplyHub schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up               Apply all pending migrations
  down             Roll back all migrations
  step <n>         Apply n migrations (negative rolls back)
  goto <version>   Migrate to an exact version
  version          Show the current schema version
  force <version>  Overwrite the recorded version (repairs a dirty schema)
  drop -confirm    Drop every database object
  create <name>    Create an empty up/down migration pair
  list             List the migration files on disk

Flags:
  -path string       Migrations directory (default "migrations")
  -log-level string  Log level (default "info")
`

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "path", "migrations", "migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command, args := args[0], args[1:]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// create and list work purely on the filesystem
	switch command {
	case "create":
		if len(args) == 0 {
			log.Fatal("Usage: migrate create <name>")
		}
		up, down, err := migration.Create(dir, args[0])
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created", zap.String("up", up), zap.String("down", down))
		return
	case "list":
		entries, err := migration.List(dir)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, e := range entries {
			fmt.Printf("%06d  %s\n", e.Version, e.Name)
		}
		if len(entries) == 0 {
			log.Info("No migrations found", zap.String("path", dir))
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, dir, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()

	case "down":
		err = m.Down()

	case "step":
		n := requireInt(log, args, "migrate step <n>")
		err = m.Steps(n)

	case "goto":
		v := requireInt(log, args, "migrate goto <version>")
		if v < 0 {
			log.Fatal("Version cannot be negative")
		}
		err = m.Goto(uint(v))

	case "version":
		version, dirty, ok, verr := m.Version()
		if verr != nil {
			log.Fatal("Failed to read version", zap.Error(verr))
		}
		if !ok {
			log.Info("No migrations applied yet")
			return
		}
		log.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return

	case "force":
		v := requireInt(log, args, "migrate force <version>")
		err = m.Force(v)

	case "drop":
		if !hasFlag(args, "-confirm", "--confirm") {
			log.Fatal("Refusing to drop without -confirm")
		}
		err = m.Drop()

	default:
		log.Error("Unknown command", zap.String("command", command))
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}

func requireInt(log *zap.Logger, args []string, usage string) int {
	if len(args) == 0 {
		log.Fatal("Usage: " + usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal("Not a number", zap.String("value", args[0]))
	}
	return n
}

func hasFlag(args []string, names ...string) bool {
	for _, arg := range args {
		for _, name := range names {
			if arg == name {
				return true
			}
		}
	}
	return false
}
