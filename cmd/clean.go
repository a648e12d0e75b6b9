package cmd

import (
	"log"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/engine"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cleanTables []string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all data from destination tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names := cleanTables
		if len(names) == 0 {
			names = viper.GetStringSlice("settings.tables")
		}

		sess, err := connect(ctx, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		cleared, err := engine.ClearTables(ctx, sess.dst, names, logger)
		if err != nil {
			return err
		}
		log.Printf("Destination Cleaned Successfully! (%d tables)", cleared)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringSliceVarP(&cleanTables, "tables", "t", []string{}, "specific tables to clean (comma-separated)")
}
