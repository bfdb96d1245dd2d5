package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitstop-ai/pitsim/sim/lapdata"
)

func newImportCmd() *cobra.Command {
	var csvPath, dbPath, raceName string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a CSV lap table in a SQLite database under a race key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			table, err := (&lapdata.CSVSource{Path: csvPath}).Load(ctx)
			if err != nil {
				return err
			}
			db, err := lapdata.OpenDB(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := lapdata.Import(ctx, db, raceName, table); err != nil {
				return err
			}
			logrus.Infof("Imported %d laps into %s as race %q", table.Len(), dbPath, raceName)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "data/synth_race.csv", "CSV lap table (lap, base_pace_s)")
	cmd.Flags().StringVar(&dbPath, "db", "data/laps.db", "SQLite database to write")
	cmd.Flags().StringVar(&raceName, "race", "default", "Race key to store the laps under")
	return cmd
}
