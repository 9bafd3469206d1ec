package migrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	chstore "churn-feature-lab/internal/storage/clickhouse"
)

// ErrSemicolonInLiteral is returned for files the statement splitter cannot handle.
var ErrSemicolonInLiteral = errors.New("semicolon inside string literal")

// RunClickhouseMigrations creates the DSN's database if needed and applies
// all embedded ClickHouse files. The returned connection targets that database.
func RunClickhouseMigrations(ctx context.Context, dsn string, logger *slog.Logger) (*chstore.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	createErr := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName)
	closeErr := admin.Close()
	if createErr != nil {
		return nil, fmt.Errorf("create database %s: %w", dbName, createErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close admin connection: %w", closeErr)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	if err := applyClickhouse(ctx, conn, logger); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func applyClickhouse(ctx context.Context, conn *chstore.Conn, logger *slog.Logger) error {
	files, err := loadFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		return err
	}

	for _, f := range files {
		// The native protocol runs one statement per Exec.
		stmts, err := splitStatements(f.SQL)
		if err != nil {
			return fmt.Errorf("split migration %s: %w", f.Name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", f.Name, err)
			}
		}
		logger.Debug("applied clickhouse migration", "file", f.Name, "statements", len(stmts))
	}
	return nil
}

// splitStatements drops "--" comment lines and splits on semicolons.
// Semicolons inside single-quoted literals are rejected, not handled.
func splitStatements(sql string) ([]string, error) {
	inLiteral := false
	for i := 0; i < len(sql); i++ {
		switch {
		case sql[i] == '\'' && inLiteral && i+1 < len(sql) && sql[i+1] == '\'':
			i++ // escaped quote
		case sql[i] == '\'':
			inLiteral = !inLiteral
		case sql[i] == ';' && inLiteral:
			return nil, ErrSemicolonInLiteral
		}
	}

	var kept []string
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", errors.New("clickhouse dsn missing database")
	}
	return db, nil
}
