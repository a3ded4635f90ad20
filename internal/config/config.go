package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Moneybird
	MoneybirdAPIToken           string
	MoneybirdAdministrationID   string
	MoneybirdFinancialAccountID string
	MoneybirdBaseURL            string

	// On-chain
	TreasuryAddress string
	EthRPCURL       string
	BaseRPCURL      string
	EtherscanAPIKey string

	// Output
	OutputDir     string
	ReportYear    int
	TransferLimit int

	// Journal
	SQLiteDBPath string

	// AMQP (optional; empty URL disables notifications)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (optional; empty spreadsheet id disables it)
	GoogleSpreadsheetID string
}

const defaultTreasuryAddress = "0x2Bc456799F3Cf071B10CE7216269471e0A40381a"

func Load() *Config {
	cfg := &Config{
		MoneybirdAPIToken:           getEnv("MONEYBIRD_API_TOKEN", ""),
		MoneybirdAdministrationID:   getEnv("MONEYBIRD_ADMINISTRATION_ID", ""),
		MoneybirdFinancialAccountID: getEnv("MONEYBIRD_FINANCIAL_ACCOUNT_ID", ""),
		MoneybirdBaseURL:            getEnv("MONEYBIRD_BASE_URL", ""),

		TreasuryAddress: getEnv("TREASURY_ADDRESS", defaultTreasuryAddress),
		EthRPCURL:       getEnv("ETH_RPC_URL", ""),
		BaseRPCURL:      getEnv("BASE_RPC_URL", ""),
		EtherscanAPIKey: getEnv("ETHERSCAN_API_KEY", ""),

		OutputDir:     getEnv("OUTPUT_DIR", "./data"),
		ReportYear:    getEnvInt("REPORT_YEAR", 0),
		TransferLimit: getEnvInt("TRANSFER_LIMIT", 25),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/treasury.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "treasury"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "artifact_refresh"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
	}

	return cfg
}

// ValidateAccounting checks the settings the accounting exporter needs.
func (c *Config) ValidateAccounting() error {
	var errors []string

	if c.MoneybirdAPIToken == "" {
		errors = append(errors, "MONEYBIRD_API_TOKEN is required")
	}
	if c.MoneybirdAdministrationID == "" {
		errors = append(errors, "MONEYBIRD_ADMINISTRATION_ID is required")
	}
	if c.MoneybirdFinancialAccountID == "" {
		errors = append(errors, "MONEYBIRD_FINANCIAL_ACCOUNT_ID is required")
	}

	errors = append(errors, c.validateShared()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateOnchain checks the settings the on-chain exporter needs.
func (c *Config) ValidateOnchain() error {
	var errors []string

	if c.TreasuryAddress == "" {
		errors = append(errors, "TREASURY_ADDRESS is required")
	} else if !strings.HasPrefix(c.TreasuryAddress, "0x") || len(c.TreasuryAddress) != 42 {
		errors = append(errors, fmt.Sprintf("invalid treasury address '%s': must be 0x-prefixed and 42 characters", c.TreasuryAddress))
	}
	if c.EthRPCURL == "" {
		errors = append(errors, "ETH_RPC_URL is required")
	}
	if c.BaseRPCURL == "" {
		errors = append(errors, "BASE_RPC_URL is required")
	}
	if c.EtherscanAPIKey == "" {
		errors = append(errors, "ETHERSCAN_API_KEY is required")
	}
	if c.TransferLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid transfer limit %d: must be at least 1", c.TransferLimit))
	}

	errors = append(errors, c.validateShared()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateShared() []string {
	var errors []string

	if c.OutputDir == "" {
		errors = append(errors, "OUTPUT_DIR cannot be empty")
	}
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLITE_DB_PATH cannot be empty")
	}
	if c.ReportYear != 0 && (c.ReportYear < 2000 || c.ReportYear > 2100) {
		errors = append(errors, fmt.Sprintf("invalid report year %d: must be between 2000 and 2100", c.ReportYear))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
