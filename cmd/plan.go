package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgschemaplan/pgschemaplan/internal/differ"
)

var planEnvironment string

func init() {
	planCmd.Flags().StringVar(&planEnvironment, "environment", "dev", "Named environment (from pgschemaplan.toml) to plan against")
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <schema.sql>",
	Short: "Generate a migration plan from a desired schema file against a live database",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := newLogger()

	desired, err := loadDesiredSchema(args[0], log)
	if err != nil {
		return err
	}

	current, err := introspectEnvironment(context.Background(), planEnvironment, log)
	if err != nil {
		return err
	}

	plan, err := differ.Plan(desired, current, differ.DefaultOptions(), log)
	if err != nil {
		return fmt.Errorf("compute plan: %w", err)
	}

	fmt.Print(differ.FormatPlan(plan))
	return nil
}
