// Command userplan is an operator tool for adjusting a user's plan and
// generation quota directly in the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	userID := flag.String("id", "", "user ID to update")
	plan := flag.String("plan", "", "new plan (free or pro), empty to keep")
	limit := flag.Int("limit", -1, "new usage limit, negative to keep")
	resetUsage := flag.Bool("reset-usage", false, "reset usage_count to zero")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: userplan -id <user-id> [-plan free|pro] [-limit N] [-reset-usage]")
		os.Exit(2)
	}
	if *plan != "" && *plan != "free" && *plan != "pro" {
		fmt.Fprintf(os.Stderr, "invalid plan %q\n", *plan)
		os.Exit(2)
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	query := `UPDATE users SET updated_at = NOW()`
	args := []any{}
	if *plan != "" {
		args = append(args, *plan)
		query += fmt.Sprintf(`, plan = $%d`, len(args))
	}
	if *limit >= 0 {
		args = append(args, *limit)
		query += fmt.Sprintf(`, usage_limit = $%d`, len(args))
	}
	if *resetUsage {
		query += `, usage_count = 0`
	}
	args = append(args, *userID)
	query += fmt.Sprintf(` WHERE id = $%d`, len(args))

	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "update: %v\n", err)
		os.Exit(1)
	}
	if tag.RowsAffected() == 0 {
		fmt.Fprintf(os.Stderr, "user %s not found\n", *userID)
		os.Exit(1)
	}

	var plan2 string
	var count, lim int
	if err := pool.QueryRow(ctx, `SELECT plan, usage_count, usage_limit FROM users WHERE id = $1`, *userID).Scan(&plan2, &count, &lim); err != nil {
		fmt.Fprintf(os.Stderr, "read back: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("user %s: plan=%s usage=%d/%d\n", *userID, plan2, count, lim)
}
