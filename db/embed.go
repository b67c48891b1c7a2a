// Package db provides embedded database schema and seed files.
package db

import "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Seed holds the JSON fixtures loaded by cmd/seed-db.
//
//go:embed seed/*.json
var Seed embed.FS
