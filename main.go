package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"retail-insights/pkg/config"
	"retail-insights/pkg/database"
	"retail-insights/pkg/loader"
	"retail-insights/pkg/models"
)

var cfg config.Config

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	root := &cobra.Command{
		Use:           "retail-insights",
		Short:         "Customer features, RFM segments and next-month purchase prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			cfg.ApplyLogging()
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.DataPath, "data", cfg.DataPath, "invoice-line file (.csv or .xlsx)")
	pf.StringVar(&cfg.DSN, "dsn", cfg.DSN, "MariaDB/MySQL DSN; when set, rows are read from --table instead of --data")
	pf.StringVar(&cfg.Table, "table", cfg.Table, "invoice-line table name")
	pf.StringVar(&cfg.ModelDir, "model-dir", cfg.ModelDir, "directory holding the classifier and scaler")
	pf.StringVar(&cfg.CancellationMode, "cancellations", cfg.CancellationMode, "retain|drop cancellation rows")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	pf.BoolVar(&cfg.Progress, "progress", cfg.Progress, "show progress bars")

	root.AddCommand(featuresCmd(), rfmCmd(), labelCmd(), trainCmd(), predictCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

// loadTransactions reads from the database when a DSN is configured, from the
// data file otherwise.
func loadTransactions(ctx context.Context) (*models.TransactionTable, error) {
	if cfg.DSN == "" {
		return loader.Load(cfg.DataPath, cfg.CleanOptions())
	}
	db, dsnUsed, err := database.Open(cfg.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	log.WithField("dsn", dsnUsed).Debug("Connected.")
	return database.LoadTransactions(ctx, db, cfg.Table, cfg.CleanOptions())
}
