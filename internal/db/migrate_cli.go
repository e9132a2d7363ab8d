package db

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUsage is returned by RunMigrateCommand for a malformed command line. The
// help text has already been written when it is returned.
var ErrUsage = errors.New("invalid migrate command")

// RunMigrateCommand handles the 'migrate' subcommand. Output goes to out.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return ErrUsage
	}
	action := args[0]
	if action == "help" {
		PrintMigrateHelp(out)
		return nil
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	switch action {
	case "up":
		if err := database.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ All migrations applied")
		return printMigrateVersion(database, out)

	case "down":
		if err := database.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Rolled back one migration")
		return printMigrateVersion(database, out)

	case "status":
		return printMigrateStatus(database, out)

	case "version":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: focus-server migrate version <version_number>")
			return ErrUsage
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[1])
		}
		if err := database.MigrateTo(uint(v)); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Migrated to version %d\n", v)
		return nil

	case "force":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: focus-server migrate force <version_number>")
			return ErrUsage
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[1])
		}
		if err := database.MigrateForce(v); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Migration version forced to %d\n", v)
		return nil

	default:
		fmt.Fprintf(out, "Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp(out)
		return ErrUsage
	}
}

func printMigrateVersion(database *DB, out io.Writer) error {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func printMigrateStatus(database *DB, out io.Writer) error {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	latest, err := LatestMigrationVersion()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Current version: %d\n", version)
	fmt.Fprintf(out, "Latest available: %d\n", latest)
	fmt.Fprintf(out, "Dirty: %v\n", dirty)

	switch {
	case dirty:
		fmt.Fprintln(out, "\n⚠️  WARNING: Database is in a dirty state!")
		fmt.Fprintln(out, "A migration failed mid-execution. Inspect the database, then run:")
		fmt.Fprintln(out, "  focus-server migrate force <version>")
	case version < latest:
		fmt.Fprintf(out, "\n⚠️  Database is %d version(s) behind. Run 'focus-server migrate up'.\n", latest-version)
	default:
		fmt.Fprintln(out, "\n✓ Database is up to date!")
	}
	return nil
}

// PrintMigrateHelp writes the help message for the migrate command.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Database Migration Commands

Usage: focus-server [-db path] migrate <command> [options]

Commands:
  up              Apply all pending migrations
  down            Rollback one migration
  status          Show current migration status and version
  version <N>     Migrate to specific version N
  force <N>       Force migration version to N (recovery only)
  help            Show this help message

Examples:
  focus-server migrate up
  focus-server migrate status
  focus-server -db /var/lib/focus/focus.db migrate version 1
`)
}
