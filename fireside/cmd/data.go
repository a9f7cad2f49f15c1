package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fireside-db/fireside/fireside/export"
	"github.com/fireside-db/fireside/fireside/form"
	"github.com/fireside-db/fireside/internal/ui"
)

// newDataCommand groups document CRUD and file transfer under "data".
func (cli *CLI) newDataCommand() *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Create, read, update, delete, and move documents",
	}

	dataCmd.AddCommand(
		cli.newDataCreateCommand(),
		cli.newDataReadCommand(),
		cli.newDataUpdateCommand(),
		cli.newDataDeleteCommand(),
		cli.newDataListCommand(),
		cli.newDataExportCommand(),
		cli.newDataImportCommand(),
		cli.newDataBackupCommand(),
	)

	return dataCmd
}

func (cli *CLI) newDataCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document",
		Long: `Create a document from a JSON payload, or interactively with
prompts derived from the collection's inferred schema.`,
		Example: `  fireside data create -c users --json '{"name": "Ada", "age": 36}'
  fireside data create -c users --id ada --json '{"name": "Ada"}'
  fireside data create -c users --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			docID, _ := cmd.Flags().GetString("id")
			jsonData, _ := cmd.Flags().GetString("json")
			interactive, _ := cmd.Flags().GetBool("interactive")

			var fields map[string]any
			switch {
			case interactive:
				client, inspector, err := cli.newInspector()
				if err != nil {
					return err
				}
				schema, err := inspector.Describe(cmd.Context(), collection, 100)
				if err != nil {
					return NewStoreError("describe collection for interactive create", err,
						"Interactive mode needs existing documents to infer fields from",
						"Use --json for the first document in a collection")
				}
				values, err := form.NewPromptFiller(os.Stdin, cmd.OutOrStdout()).Fill(schema)
				if err != nil {
					return NewInputError("create document", err.Error())
				}
				if values == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				id, err := client.CreateDocument(cmd.Context(), collection, docID, values)
				if err != nil {
					return NewStoreError("create document", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s/%s\n", collection, id)
				return nil

			case jsonData != "":
				dec := json.NewDecoder(strings.NewReader(jsonData))
				dec.UseNumber()
				if err := dec.Decode(&fields); err != nil {
					return NewInputError("create document",
						fmt.Sprintf("invalid JSON payload: %v", err),
						"Pass a JSON object, e.g. --json '{\"name\": \"Ada\"}'")
				}

			default:
				return NewInputError("create document", "no document data given",
					"Pass --json with a JSON object",
					"Pass --interactive to be prompted field by field")
			}

			client, err := cli.newClient()
			if err != nil {
				return err
			}
			id, err := client.CreateDocument(cmd.Context(), collection, docID, fields)
			if err != nil {
				return NewStoreError("create document", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s/%s\n", collection, id)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	cmd.Flags().String("id", "", "Document ID (server-generated when omitted)")
	cmd.Flags().String("json", "", "Document fields as a JSON object")
	cmd.Flags().Bool("interactive", false, "Prompt for each field using the inferred schema")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func (cli *CLI) newDataReadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "read",
		Short:   "Read a document",
		Example: `  fireside data read -c users -i ada --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			docID, _ := cmd.Flags().GetString("id")

			client, err := cli.newClient()
			if err != nil {
				return err
			}
			fields, err := client.GetDocument(cmd.Context(), collection, docID)
			if err != nil {
				return NewStoreError("read document", err)
			}

			out, err := renderDocument(fields, cli.format())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	cmd.Flags().StringP("id", "i", "", "Document ID (required)")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (cli *CLI) newDataUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a document",
		Long: `Update a document from a JSON payload. By default only the given
fields change; --replace overwrites the whole document.`,
		Example: `  fireside data update -c users -i ada --json '{"age": 37}'
  fireside data update -c users -i ada --json '{"name": "Ada"}' --replace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			docID, _ := cmd.Flags().GetString("id")
			jsonData, _ := cmd.Flags().GetString("json")
			replace, _ := cmd.Flags().GetBool("replace")

			var fields map[string]any
			dec := json.NewDecoder(strings.NewReader(jsonData))
			dec.UseNumber()
			if err := dec.Decode(&fields); err != nil {
				return NewInputError("update document",
					fmt.Sprintf("invalid JSON payload: %v", err),
					"Pass a JSON object, e.g. --json '{\"age\": 37}'")
			}

			client, err := cli.newClient()
			if err != nil {
				return err
			}
			if err := client.UpdateDocument(cmd.Context(), collection, docID, fields, !replace); err != nil {
				return NewStoreError("update document", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s/%s\n", collection, docID)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	cmd.Flags().StringP("id", "i", "", "Document ID (required)")
	cmd.Flags().String("json", "", "Fields to update as a JSON object (required)")
	cmd.Flags().Bool("replace", false, "Replace the whole document instead of merging")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

func (cli *CLI) newDataDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete",
		Short:   "Delete a document",
		Example: `  fireside data delete -c users -i ada --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			docID, _ := cmd.Flags().GetString("id")
			yes, _ := cmd.Flags().GetBool("yes")

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %s/%s? [y/N]: ", collection, docID)
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				answer := strings.ToLower(strings.TrimSpace(line))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			client, err := cli.newClient()
			if err != nil {
				return err
			}
			if err := client.DeleteDocument(cmd.Context(), collection, docID); err != nil {
				return NewStoreError("delete document", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", collection, docID)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	cmd.Flags().StringP("id", "i", "", "Document ID (required)")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (cli *CLI) newDataListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List documents in a collection",
		Example: `  fireside data list -c users -l 20 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			limit, _ := cmd.Flags().GetInt("limit")

			client, err := cli.newClient()
			if err != nil {
				return err
			}
			docs, err := client.ListRaw(cmd.Context(), collection, limit)
			if err != nil {
				return NewStoreError("list documents", err)
			}

			items := make([]map[string]any, len(docs))
			for i, doc := range docs {
				item := doc.Dynamic()
				item["_id"] = doc.ID()
				items[i] = item
			}

			out, err := renderDocuments(items, cli.format())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	cmd.Flags().IntP("limit", "l", 0, "Maximum documents to return (0 = server default)")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func (cli *CLI) newDataExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a collection to a JSON or YAML file",
		Long: `Export a collection snapshot to a file. The format follows the
file extension (.json, .yaml, .yml).`,
		Example: `  fireside data export -c users -o users.json
  fireside data export -c users -o users.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = collection + "_export.json"
			}

			client, err := cli.newClient()
			if err != nil {
				return err
			}
			count, err := export.WriteFile(cmd.Context(), client, collection, output)
			if err != nil {
				return NewStoreError("export collection", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d documents from %s to %s\n",
				count, collection, output)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	cmd.Flags().StringP("output", "o", "", "Output file (default <collection>_export.json)")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func (cli *CLI) newDataImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import documents from an export file",
		Long: `Import documents from a previously exported file. The target
collection defaults to the one recorded in the file.`,
		Example: `  fireside data import -i users.json
  fireside data import -i users.json -c users_copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			collection, _ := cmd.Flags().GetString("collection")

			env, err := export.ReadFile(input)
			if err != nil {
				return NewInputError("import documents", err.Error(),
					"Check that the file was produced by 'fireside data export'")
			}

			client, err := cli.newClient()
			if err != nil {
				return err
			}
			imported, err := export.Import(cmd.Context(), client, env, collection, nil)
			if err != nil {
				return NewStoreError("import documents", err)
			}
			target := collection
			if target == "" {
				target = env.Collection
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d documents into %s\n",
				imported, len(env.Data), target)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Export file to import (required)")
	cmd.Flags().StringP("collection", "c", "", "Target collection (default from the file)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (cli *CLI) newDataBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Short:   "Export every discoverable collection",
		Example: `  fireside data backup -d ./backups`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			client, inspector, err := cli.newInspector()
			if err != nil {
				return err
			}
			counts, err := export.Backup(cmd.Context(), client, inspector, dir, nil)
			if err != nil {
				return NewStoreError("back up collections", err)
			}

			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)

			total := 0
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d documents\n",
					ui.Accent.Render(name), counts[name])
				total += counts[name]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d documents across %d collections to %s\n",
				total, len(counts), dir)
			return nil
		},
	}

	cmd.Flags().StringP("dir", "d", "./backups", "Directory for backup files")

	return cmd
}
