package database

import "embed"

// EmbeddedMigrations, goose formatındaki (-- +goose Up / Down) şema dosyaları.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
