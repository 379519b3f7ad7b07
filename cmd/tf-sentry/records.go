package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/leighmacdonald/tf-sentry/internal/config"
	"github.com/leighmacdonald/tf-sentry/internal/records"
	"github.com/leighmacdonald/tf-sentry/internal/sid"
	"github.com/leighmacdonald/tf-sentry/internal/store"
	"github.com/spf13/cobra"
)

var (
	migrateDown bool
	importKind  string

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			action := store.MigrateUp
			if migrateDown {
				action = store.MigrateDn
			}

			database, errDB := store.Open(cmd.Context(), config.Path(config.DefaultDBName), false)
			if errDB != nil {
				return errors.Join(errDB, errApp)
			}
			defer database.Close()

			return store.Migrate(database, action)
		},
	}
)

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Fully downgrade the schema")
}

// openRecords opens the configured database and loads the record store,
// for the one-shot import/export/check commands.
func openRecords(ctx context.Context) (*records.Store, func(), error) {
	database, errDB := store.Open(ctx, config.Path(config.DefaultDBName), true)
	if errDB != nil {
		return nil, nil, errors.Join(errDB, errApp)
	}

	closer := func() {
		if err := database.Close(); err != nil {
			slog.Error("Error closing database", slog.String("error", err.Error()))
		}
	}

	recordStore, errRecords := records.New(ctx, store.New(database))
	if errRecords != nil {
		closer()

		return nil, nil, errors.Join(errRecords, errApp)
	}

	return recordStore, closer, nil
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import records, name patterns or raw id lists",
	}

	idsCmd := &cobra.Command{
		Use:   "ids <path>",
		Short: "Scan a text file for steam ids and record them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, errKind := records.ParseKind(importKind)
			if errKind != nil {
				return errKind
			}

			recordStore, closer, errOpen := openRecords(cmd.Context())
			if errOpen != nil {
				return errOpen
			}
			defer closer()

			count, errImport := recordStore.ImportTextFile(cmd.Context(), args[0], kind, true)
			if errImport != nil {
				return errImport
			}
			fmt.Printf("Imported %d records as %s\n", count, kind) //nolint:forbidigo

			return nil
		},
	}
	idsCmd.Flags().StringVar(&importKind, "kind", string(records.KindBot),
		"Classification applied to every id (Player|Bot|Cheater|Suspicious)")

	recordsCmd := &cobra.Command{
		Use:   "records <path>",
		Short: "Import a JSON record list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordStore, closer, errOpen := openRecords(cmd.Context())
			if errOpen != nil {
				return errOpen
			}
			defer closer()

			count, errImport := recordStore.ImportRecordsFile(cmd.Context(), args[0])
			if errImport != nil {
				return errImport
			}
			fmt.Printf("Imported %d records\n", count) //nolint:forbidigo

			return nil
		},
	}

	patternsCmd := &cobra.Command{
		Use:   "patterns <path>",
		Short: "Append name patterns from a line oriented file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configUpdates := make(chan config.Config)
			userConfig, errConfig := config.NewLoader(configUpdates).Read()
			if errConfig != nil {
				return errConfig
			}

			recordStore, closer, errOpen := openRecords(cmd.Context())
			if errOpen != nil {
				return errOpen
			}
			defer closer()

			if _, _, errExisting := recordStore.ImportPatternsFile(userConfig.PatternFile); errExisting != nil {
				slog.Debug("No existing pattern file", slog.String("path", userConfig.PatternFile))
			}

			added, skipped, errImport := recordStore.ImportPatternsFile(args[0])
			if errImport != nil {
				return errImport
			}
			fmt.Printf("Added %d patterns, skipped %d invalid\n", added, skipped) //nolint:forbidigo

			return recordStore.ExportPatternsFile(userConfig.PatternFile)
		},
	}

	cmd.AddCommand(idsCmd, recordsCmd, patternsCmd)

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export curated records or name patterns",
	}

	recordsCmd := &cobra.Command{
		Use:   "records [path]",
		Short: "Write the curated records as JSON, to stdout by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordStore, closer, errOpen := openRecords(cmd.Context())
			if errOpen != nil {
				return errOpen
			}
			defer closer()

			if len(args) == 0 {
				return recordStore.ExportRecords(os.Stdout)
			}

			return recordStore.ExportRecordsFile(args[0])
		},
	}

	patternsCmd := &cobra.Command{
		Use:   "patterns [path]",
		Short: "Write the name pattern list, to stdout by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configUpdates := make(chan config.Config)
			userConfig, errConfig := config.NewLoader(configUpdates).Read()
			if errConfig != nil {
				return errConfig
			}

			recordStore, closer, errOpen := openRecords(cmd.Context())
			if errOpen != nil {
				return errOpen
			}
			defer closer()

			if _, _, errImport := recordStore.ImportPatternsFile(userConfig.PatternFile); errImport != nil {
				return errImport
			}

			if len(args) == 0 {
				return recordStore.ExportPatterns(os.Stdout)
			}

			return recordStore.ExportPatternsFile(args[0])
		},
	}

	cmd.AddCommand(recordsCmd, patternsCmd)

	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <steamid or name>",
		Short: "Look up the classification for a steam id or test a display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configUpdates := make(chan config.Config)
			userConfig, errConfig := config.NewLoader(configUpdates).Read()
			if errConfig != nil {
				return errConfig
			}

			recordStore, closer, errOpen := openRecords(cmd.Context())
			if errOpen != nil {
				return errOpen
			}
			defer closer()

			if steamID, errConv := sid.To64(args[0]); errConv == nil {
				record, found := recordStore.Lookup(sid.Format32(steamID))
				if !found {
					fmt.Printf("%s: no record\n", args[0]) //nolint:forbidigo

					return nil
				}
				fmt.Printf("%s: %s (%s)\n", args[0], record.Kind, record.Notes) //nolint:forbidigo

				return nil
			}

			if _, _, errImport := recordStore.ImportPatternsFile(userConfig.PatternFile); errImport != nil {
				slog.Debug("No pattern file loaded", slog.String("path", userConfig.PatternFile))
			}

			if pattern, matched := recordStore.ClassifyName(args[0]); matched {
				fmt.Printf("%q matches pattern %q\n", args[0], pattern.String()) //nolint:forbidigo

				return nil
			}

			fmt.Printf("%q matches no pattern\n", args[0]) //nolint:forbidigo

			return nil
		},
	}
}
