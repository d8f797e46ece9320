package config

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
)

var (
	// Shared dependencies used across the application
	DB        *sql.DB
	SecretKey = []byte("changeme")
	Validate  = validator.New()
)
