package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordhoard/wordhoard/internal/bootstrap"
	"github.com/wordhoard/wordhoard/internal/database"
	"github.com/wordhoard/wordhoard/internal/definition"
)

func newFillCommand() *cobra.Command {
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill missing definitions in the defined table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			engine, closeCache, err := newEngine(cfg, "")
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				_ = closeCache()
				return fmt.Errorf("database.Open > %w", err)
			}

			app := bootstrap.New()
			app.AddShutdownHook("result cache", func(ctx context.Context) error {
				return closeCache()
			})
			app.AddShutdownHook("database", func(ctx context.Context) error {
				return db.Close()
			})

			return app.Run(cmd.Context(), func(ctx context.Context) error {
				filler := definition.NewFiller(
					engine,
					definition.NewDBDefinedRepository(db),
					definition.WithDryRun(dryRun),
				)
				summary, err := filler.RunLimited(ctx, limit)
				if err != nil {
					return fmt.Errorf("filler.RunLimited > %w", err)
				}

				fmt.Println("Fill summary:")
				if dryRun {
					fmt.Println("  (dry run: no changes made)")
				}
				fmt.Printf("  Terms looked up: %d\n", summary.LookedUp)
				fmt.Printf("  Rows updated:    %d\n", summary.Updated)
				fmt.Printf("  Rows inserted:   %d\n", summary.Inserted)
				fmt.Printf("  Rows skipped:    %d\n", summary.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows to process (0 = all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without modifying the database")
	return cmd
}
