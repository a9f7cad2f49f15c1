package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fireside-db/fireside/fireside/schema"
)

const defaultSchemaFile = "fireside-schema.json"

// newSchemaCommand groups schema file management under "schema".
func (cli *CLI) newSchemaCommand() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage declared collection schemas",
	}

	schemaCmd.AddCommand(
		cli.newSchemaExportCommand(),
		cli.newSchemaImportCommand(),
		cli.newSchemaExampleCommand(),
		cli.newSchemaValidateCommand(),
		cli.newSchemaSyncCommand(),
	)

	return schemaCmd
}

func (cli *CLI) newSchemaExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a schema file inferred from the live database",
		Long: `Discover collections, infer each one's schema from its documents,
and write the result as a schema file. The file is a starting
point: tighten the discovered types and add validation rules by
hand before importing it back.`,
		Example: `  fireside schema export
  fireside schema export -o myproject-schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			_, inspector, err := cli.newInspector()
			if err != nil {
				return err
			}
			file, err := schema.Discover(cmd.Context(), inspector, slog.Default())
			if err != nil {
				return NewStoreError("discover schemas", err)
			}
			if err := schema.Save(output, file); err != nil {
				return NewInputError("export schema", err.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported schemas for %d collections to %s\n",
				len(file.Collections), output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", defaultSchemaFile, "Schema file to write")

	return cmd
}

func (cli *CLI) newSchemaImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a schema file and sync it to the database",
		Long: `Load a schema file, check it, and write one metadata document per
collection into the schema metadata collection so other clients
can read the declared schemas.`,
		Example: `  fireside schema import -i fireside-schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			return cli.syncSchemaFile(cmd, "import schema", input)
		},
	}

	cmd.Flags().StringP("input", "i", defaultSchemaFile, "Schema file to import")

	return cmd
}

func (cli *CLI) newSchemaExampleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "example",
		Short:   "Write an example schema file",
		Example: `  fireside schema example -o fireside-schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			if err := schema.Save(output, schema.Example()); err != nil {
				return NewInputError("write example schema", err.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote example schema to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", defaultSchemaFile, "File to write")

	return cmd
}

func (cli *CLI) newSchemaValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate",
		Short:   "Check a schema file without touching the database",
		Example: `  fireside schema validate --file fireside-schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")

			file, err := schema.Load(path)
			if err != nil {
				return NewInputError("validate schema", err.Error())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d collections)\n",
				path, len(file.Collections))
			return nil
		},
	}

	cmd.Flags().String("file", defaultSchemaFile, "Schema file to check")

	return cmd
}

func (cli *CLI) newSchemaSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Sync a schema file's collections to the metadata collection",
		Example: `  fireside schema sync --file fireside-schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			return cli.syncSchemaFile(cmd, "sync schema", path)
		},
	}

	cmd.Flags().String("file", defaultSchemaFile, "Schema file to sync")

	return cmd
}

// syncSchemaFile loads a schema file and pushes its collections to the
// schema metadata collection.
func (cli *CLI) syncSchemaFile(cmd *cobra.Command, operation, path string) error {
	file, err := schema.Load(path)
	if err != nil {
		return NewInputError(operation, err.Error(),
			"Run 'fireside schema validate --file "+path+"' for details",
			"Run 'fireside schema example' to see the expected layout")
	}

	client, err := cli.newClient()
	if err != nil {
		return err
	}
	manager := schema.NewManager(client)
	manager.Import(file)
	if err := manager.Sync(cmd.Context()); err != nil {
		return NewStoreError(operation, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Synced schemas for: %s\n",
		strings.Join(manager.Names(), ", "))
	return nil
}
