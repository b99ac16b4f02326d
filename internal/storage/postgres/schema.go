package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var requiredColumns = []struct {
	table  string
	column string
}{
	{table: "users", column: "device_id"},
	{table: "daily_health_summaries", column: "user_id"},
	{table: "daily_health_summaries", column: "date"},
	{table: "daily_health_summaries", column: "weight_kg"},
	{table: "daily_health_summaries", column: "body_fat_percent"},
	{table: "daily_health_summaries", column: "sleep_hours"},
	{table: "user_goals", column: "goal"},
	{table: "user_goals", column: "weight"},
	{table: "user_goals", column: "body_fat_percent"},
	{table: "user_goals", column: "starts_at"},
}

// ValidateSchema fails fast when a database managed outside the embedded
// migrations is missing columns the store reads.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("database pool is nil")
	}

	for _, item := range requiredColumns {
		ok, err := columnExists(ctx, pool, item.table, item.column)
		if err != nil {
			return fmt.Errorf("failed checking schema for %s.%s: %w", item.table, item.column, err)
		}
		if !ok {
			return fmt.Errorf("required column %s.%s is missing; run migrations", item.table, item.column)
		}
	}
	return nil
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	table := strings.TrimSpace(tableName)
	column := strings.TrimSpace(columnName)
	if table == "" || column == "" {
		return false, fmt.Errorf("table/column must not be empty")
	}
	var exists bool
	err := pool.QueryRow(
		ctx,
		`SELECT EXISTS (
		   SELECT 1
		   FROM information_schema.columns
		   WHERE table_schema = current_schema()
		     AND lower(table_name) = lower($1)
		     AND lower(column_name) = lower($2)
		 )`,
		table,
		column,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
