package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <schema.sql>",
	Short: "Parse a schema file and report invariant violations without touching a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := newLogger()

	schema, err := loadDesiredSchema(args[0], log)
	if err != nil {
		return err
	}

	fmt.Printf("%s is valid: %d table(s), %d enum(s)\n", args[0], len(schema.Tables), len(schema.Enums))
	return nil
}
