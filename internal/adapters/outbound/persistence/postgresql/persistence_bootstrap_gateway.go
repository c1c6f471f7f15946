package postgresql

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type PersistenceBootstrapGateway struct {
	databaseURL    string
	databaseTarget string
	migrationsPath string
	logger         *slog.Logger
}

var _ portsout.PersistenceBootstrapGateway = (*PersistenceBootstrapGateway)(nil)

func NewPersistenceBootstrapGateway(
	databaseURL string,
	databaseTarget string,
	migrationsPath string,
	logger *slog.Logger,
) *PersistenceBootstrapGateway {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PersistenceBootstrapGateway{
		databaseURL:    databaseURL,
		databaseTarget: databaseTarget,
		migrationsPath: migrationsPath,
		logger:         logger,
	}
}

func (g *PersistenceBootstrapGateway) CheckReadiness(ctx context.Context) *apperrors.AppError {
	db, err := sql.Open("pgx", g.databaseURL)
	if err != nil {
		g.logger.Error("database connection initialization failed", "database_target", g.databaseTarget, "error", err)
		return apperrors.NewInternal(
			"DB_CONNECT_INIT_FAILED",
			"failed to initialize database connection",
			map[string]any{"database_target": g.databaseTarget},
		)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		g.logger.Error("database readiness check failed", "database_target", g.databaseTarget, "error", err)
		return apperrors.NewUnavailable(
			"DB_CONNECT_FAILED",
			"failed to connect to database",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	g.logger.Info("database readiness check succeeded", "database_target", g.databaseTarget)
	return nil
}

func (g *PersistenceBootstrapGateway) RunMigrations(ctx context.Context) *apperrors.AppError {
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternal(
			"DB_MIGRATION_CONTEXT_CANCELED",
			"migration context canceled",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	migrationsAbsPath, err := filepath.Abs(g.migrationsPath)
	if err != nil {
		return apperrors.NewInternal(
			"DB_MIGRATION_PATH_RESOLVE_FAILED",
			"failed to resolve migration path",
			map[string]any{"migrations_path": g.migrationsPath},
		)
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsAbsPath)
	migrationRunner, err := migrate.New(sourceURL, g.databaseURL)
	if err != nil {
		g.logger.Error("migration runner setup failed", "database_target", g.databaseTarget, "error", err)
		return apperrors.NewInternal(
			"DB_MIGRATION_SETUP_FAILED",
			"failed to initialize migration runner",
			map[string]any{
				"database_target": g.databaseTarget,
				"migrations_path": g.migrationsPath,
			},
		)
	}

	defer func() {
		sourceErr, dbErr := migrationRunner.Close()
		if sourceErr != nil {
			g.logger.Warn("migration source close failed", "migrations_path", g.migrationsPath, "error", sourceErr)
		}
		if dbErr != nil {
			g.logger.Warn("migration db close failed", "database_target", g.databaseTarget, "error", dbErr)
		}
	}()

	err = migrationRunner.Up()
	if err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		g.logger.Error("database migrations failed", "database_target", g.databaseTarget, "error", err)
		return apperrors.NewInternal(
			"DB_MIGRATION_APPLY_FAILED",
			"failed to apply migrations",
			map[string]any{
				"database_target": g.databaseTarget,
				"migrations_path": g.migrationsPath,
			},
		)
	}

	if stderrors.Is(err, migrate.ErrNoChange) {
		g.logger.Info("database migrations up to date", "database_target", g.databaseTarget)
	} else {
		g.logger.Info("database migrations applied", "database_target", g.databaseTarget)
	}

	return nil
}
