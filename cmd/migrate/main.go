// Comando operativo: corre la migración de saldos de botellones (crear
// estructura, backfill de saldos legados y reconstrucción de la vista) en una
// sola transacción. Es seguro re-ejecutarlo: la migración es idempotente.
//
// Uso:
//
//	go run ./cmd/migrate
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/tu-usuario/distriagua-api/internal/application/migration"
	"github.com/tu-usuario/distriagua-api/internal/infrastructure/postgres"
	"github.com/tu-usuario/distriagua-api/pkg/config"
	"github.com/tu-usuario/distriagua-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewMigrationTxRunner(pool)
	uc := migration.NewBackfillUseCase(txRunner, log)

	report, err := uc.Run(ctx)
	if err != nil {
		var mErr *migration.Error
		if errors.As(err, &mErr) {
			log.Error().
				Str("step", mErr.Step).
				Err(mErr.Err).
				Msg("migración fallida, transacción revertida")
		} else {
			log.Error().Err(err).Msg("migración fallida, transacción revertida")
		}
		os.Exit(1)
	}

	// Reporte legible para el operador.
	out, _ := json.MarshalIndent(report, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	log.Info().
		Int("customers_backfilled", report.CustomersBackfilled).
		Str("default_product", report.DefaultProductName).
		Msg("migración completada")
}
