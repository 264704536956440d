package commands

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/addressattr/internal"
	"github.com/dukerupert/addressattr/internal/catalog"
	"github.com/dukerupert/addressattr/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

// SeedCmd loads the YAML catalog into Postgres
var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the catalog into Postgres",
	Long: `Run pending migrations and upsert every attribute and value from --catalog.

When --nats-url is set a change notification is published afterwards so
running servers drop their cached catalog.

Examples:
  attrctl --catalog catalog.yaml seed --database-url postgres://localhost/addressattr
  attrctl --catalog catalog.yaml seed --database-url $DATABASE_URL --nats-url nats://localhost:4222`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var (
	databaseURLFlag string
	natsURLFlag     string
	natsSubjectFlag string
)

func init() {
	SeedCmd.Flags().StringVar(&databaseURLFlag, "database-url", "", "Postgres connection string")
	SeedCmd.Flags().StringVar(&natsURLFlag, "nats-url", "", "NATS server to notify after seeding")
	SeedCmd.Flags().StringVar(&natsSubjectFlag, "nats-subject", catalog.DefaultChangeSubject, "Catalog change subject")
	_ = SeedCmd.MarkFlagRequired("database-url")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cat, err := catalog.LoadFile(catalogFlag)
	if err != nil {
		return err
	}

	sqlDB, err := sql.Open("pgx", databaseURLFlag)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURLFlag)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	attrs, err := cat.GetAllAttributes(ctx)
	if err != nil {
		return err
	}
	values := cat.Values()

	if err := postgres.NewAttributeCatalog(pool).Upsert(ctx, attrs, values); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d attributes and %d values\n", len(attrs), len(values))

	if natsURLFlag == "" {
		return nil
	}
	nc, err := nats.Connect(natsURLFlag, nats.Name("attrctl"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	if err := nc.Publish(natsSubjectFlag, nil); err != nil {
		return fmt.Errorf("failed to publish catalog change: %w", err)
	}
	return nc.Flush()
}
