package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fireside-db/fireside/fireside/collections"
)

// newCollectionsCommand groups collection discovery under "collections".
func (cli *CLI) newCollectionsCommand() *cobra.Command {
	collectionsCmd := &cobra.Command{
		Use:   "collections",
		Short: "Discover and inspect collections",
	}

	collectionsCmd.AddCommand(
		cli.newCollectionsListCommand(),
		cli.newCollectionsInfoCommand(),
		cli.newCollectionsDescribeCommand(),
	)

	return collectionsCmd
}

func (cli *CLI) newCollectionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discoverable collections",
		Long: `Probe a set of well-known collection names plus the schema
metadata collection and list the ones that hold documents.`,
		Example: `  fireside collections list --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, inspector, err := cli.newInspector()
			if err != nil {
				return err
			}
			infos, err := inspector.List(cmd.Context())
			if err != nil {
				return NewStoreError("list collections", err)
			}

			out, err := renderCollections(infos, cli.format())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func (cli *CLI) newCollectionsInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "info",
		Short:   "Show document count, size estimate, and last modification",
		Example: `  fireside collections info -c users`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")

			_, inspector, err := cli.newInspector()
			if err != nil {
				return err
			}
			info, err := inspector.Info(cmd.Context(), collection)
			if err != nil {
				return NewStoreError("inspect collection", err)
			}

			out, err := renderCollections([]collections.CollectionInfo{info}, cli.format())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func (cli *CLI) newCollectionsDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Infer a collection's schema from its documents",
		Long: `Sample documents from a collection and report each field's type,
presence, and example values. A field present in every sampled
document is reported as required.`,
		Example: `  fireside collections describe -c users
  fireside collections describe -c users --sample 50 --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			sample, _ := cmd.Flags().GetInt("sample")

			_, inspector, err := cli.newInspector()
			if err != nil {
				return err
			}
			schema, err := inspector.Describe(cmd.Context(), collection, sample)
			if err != nil {
				return NewStoreError("describe collection", err,
					"An empty collection has nothing to sample",
					"Run 'fireside collections list' to see known collections")
			}

			out, err := renderSchema(schema, cli.format())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringP("collection", "c", "", "Collection name (required)")
	cmd.Flags().Int("sample", 100, "Documents to sample")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}
