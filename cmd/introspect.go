package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var introspectEnvironmentFlag string

func init() {
	introspectCmd.Flags().StringVar(&introspectEnvironmentFlag, "environment", "dev", "Named environment (from pgschemaplan.toml) to introspect")
	rootCmd.AddCommand(introspectCmd)
}

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Print the live schema of an environment's database as JSON",
	Args:  cobra.NoArgs,
	RunE:  runIntrospect,
}

func runIntrospect(cmd *cobra.Command, args []string) error {
	log := newLogger()

	schema, err := introspectEnvironment(context.Background(), introspectEnvironmentFlag, log)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
