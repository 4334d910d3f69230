// Seed adds todos for one user to the database. Run from project root:
//
//	go run ./scripts/seed --user alice --count 10000
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"todo-realtime/internal/config"
	"todo-realtime/internal/database"
)

const batchSize = 500

func main() {
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Insert generated todos for a user",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			count, _ := cmd.Flags().GetInt("count")
			return seed(cmd.Context(), user, count)
		},
	}
	cmd.Flags().String("user", "seed-user", "Owner of the generated todos")
	cmd.Flags().Int("count", 10_000, "Number of todos to insert")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seed(ctx context.Context, user string, total int) error {
	if user == "" || total <= 0 {
		return fmt.Errorf("need a user and a positive count")
	}
	config.Get()
	db, err := database.DB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	start := time.Now()
	for done := 0; done < total; done += batchSize {
		n := min(batchSize, total-done)
		if err := insertBatch(ctx, db, user, done, n); err != nil {
			return err
		}
		fmt.Printf("\rInserted %d / %d", done+n, total)
	}
	fmt.Printf("\nDone: %d todos in %v\n", total, time.Since(start))
	return nil
}

func insertBatch(ctx context.Context, db *sql.DB, user string, offset, n int) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	args := make([]any, 0, n*7)
	placeholders := make([]string, 0, n)
	for i := 0; i < n; i++ {
		seq := offset + i + 1
		b := 7 * i
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			b+1, b+2, b+3, b+4, b+5, b+6, b+7))
		// Spread created_at so list order matches sequence order.
		at := now.Add(time.Duration(seq) * time.Microsecond)
		args = append(args,
			uuid.New(),
			fmt.Sprintf("Todo %d", seq),
			fmt.Sprintf("Description for todo %d", seq),
			seq%3 == 0,
			user,
			at,
			at,
		)
	}
	q := `INSERT INTO todos (id, title, description, is_completed, owner_id, created_at, updated_at) VALUES ` +
		strings.Join(placeholders, ",")
	if _, err := db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert batch at %d: %w", offset, err)
	}
	return nil
}
