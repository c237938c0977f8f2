package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
)

// pgLockNotAvailable is the SQLSTATE raised when lock_timeout expires.
const pgLockNotAvailable = "55P03"

// ErrLocked reports that another connection holds locks the operation needs.
var ErrLocked = errors.New("database is locked")

func newMigrator(cfg Config, src fs.FS, lockTimeout time.Duration) (*migrate.Migrate, error) {
	driver, err := iofs.New(src, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", driver, cfg.URL(lockTimeout))
	if err != nil {
		return nil, classifyLock(fmt.Errorf("failed to initialize migrations: %w", err))
	}
	if lockTimeout > 0 {
		m.LockTimeout = lockTimeout
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		logger.MIG.Warn("migrator close failed",
			slog.String("event", "close"),
			slog.String("err", err.Error()),
		)
	}
}

// RunMigrations applies every pending up migration found in src.
func RunMigrations(ctx context.Context, cfg Config, src fs.FS) error {
	cfg.Normalize()
	if err := WaitForPostgres(ctx, cfg.DSN(), cfg.ConnectTimeout); err != nil {
		logger.MIG.Error("db not ready",
			slog.String("event", "db.migrate"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("database not ready: %w", err)
	}

	files := listMigrationFiles(src)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "resolve"),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	m, err := newMigrator(cfg, src, 0)
	if err != nil {
		logger.MIG.Error("init failed",
			slog.String("event", "db.migrate"),
			slog.String("err", err.Error()),
		)
		return err
	}
	defer closeMigrator(m)

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", took),
		)
		return classifyLock(fmt.Errorf("migration execution failed: %w", upErr))
	}
	toVer, _, _ := m.Version()

	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

// ResetSchema drops every object in the database and reapplies src.
// Lock conflicts are reported as ErrLocked.
func ResetSchema(ctx context.Context, cfg Config, src fs.FS) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg.Normalize()
	start := time.Now()

	m, err := newMigrator(cfg, src, cfg.LockTimeout)
	if err != nil {
		return err
	}
	dropErr := m.Drop()
	closeMigrator(m)
	if dropErr != nil {
		logger.MIG.Warn("schema drop failed",
			slog.String("event", "reset.drop"),
			slog.String("err", dropErr.Error()),
		)
		return classifyLock(fmt.Errorf("drop schema: %w", dropErr))
	}

	// Drop removes the version table too, so Up needs a fresh instance.
	m, err = newMigrator(cfg, src, cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer closeMigrator(m)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return classifyLock(fmt.Errorf("recreate schema: %w", err))
	}

	logger.MIG.Info("schema reset",
		slog.String("event", "reset"),
		slog.String("status", "ok"),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// IsLockError reports whether err stems from migrate or postgres lock contention.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrLocked) ||
		errors.Is(err, migrate.ErrLocked) ||
		errors.Is(err, migrate.ErrLockTimeout) ||
		errors.Is(err, migratedb.ErrLocked) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgLockNotAvailable {
		return true
	}
	var dbErr migratedb.Error
	if errors.As(err, &dbErr) && dbErr.OrigErr != nil && dbErr.OrigErr != err {
		return IsLockError(dbErr.OrigErr)
	}
	var dbErrPtr *migratedb.Error
	if errors.As(err, &dbErrPtr) && dbErrPtr.OrigErr != nil {
		return IsLockError(dbErrPtr.OrigErr)
	}
	return false
}

func classifyLock(err error) error {
	if IsLockError(err) && !errors.Is(err, ErrLocked) {
		return fmt.Errorf("%w: %w", ErrLocked, err)
	}
	return err
}

func listMigrationFiles(src fs.FS) []string {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
