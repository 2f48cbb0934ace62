package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pgschemaplan/pgschemaplan/internal/config"
	"github.com/pgschemaplan/pgschemaplan/internal/ddl"
	"github.com/pgschemaplan/pgschemaplan/internal/introspect"
	"github.com/pgschemaplan/pgschemaplan/internal/logging"
	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

func loadDesiredSchema(path string, log logging.Logger) (*schemamodel.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file %q: %w", path, err)
	}
	return ddl.Parse(string(data), log)
}

func resolveEnvironmentURL(environment string) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	env, err := cfg.Environment(environment)
	if err != nil {
		return "", err
	}
	return env.PostgresURL, nil
}

func introspectEnvironment(ctx context.Context, environment string, log logging.Logger) (*schemamodel.Schema, error) {
	postgresURL, err := resolveEnvironmentURL(environment)
	if err != nil {
		return nil, err
	}

	db, err := introspect.Open(ctx, postgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to %q: %w", environment, err)
	}
	defer func() { _ = db.Close() }()

	return introspect.Schema(ctx, db, "public", log)
}
