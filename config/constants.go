package config

import "time"

const (
	// API prefix, он же API_BASE виджета
	APIPrefix = "/api/v1"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Timeouts
	DBQueryTimeout     = 5 * time.Second
	ShutdownTimeout    = 10 * time.Second
	WidgetFetchTimeout = 8 * time.Second
	PublishTimeout     = 5 * time.Second

	// JWT
	TokenTTL    = 24 * time.Hour
	TokenIssuer = "answer24-widget-server"

	// LLM
	MaxReplyTokens     = 600
	DefaultTemperature = 0.4
)
