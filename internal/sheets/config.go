// Package sheets reads table mappings out of a model's Google Sheets
// workbook.
package sheets

import (
	"fmt"
	"time"
)

// DefaultMappingSheet is the worksheet listing the tables to extract.
const DefaultMappingSheet = "Table Mapping"

// Config holds the configuration for the Google Sheets extractor.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	// TokenFile holds a saved OAuth2 token used when no refresh token is
	// configured directly.
	TokenFile     string
	MappingSheet  string
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MappingSheet:  DefaultMappingSheet,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && (c.RefreshToken != "" || c.TokenFile != "")
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.MappingSheet == "" {
		return fmt.Errorf("mapping sheet name is required")
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	return nil
}
