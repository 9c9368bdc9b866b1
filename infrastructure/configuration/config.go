package configuration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hayatoa/threads-auto-post-gs/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App       App       `json:"app"`
	Threads   Threads   `json:"threads"`
	Sheet     Sheet     `json:"sheet"`
	Scheduler Scheduler `json:"scheduler"`
}

type App struct {
	// StatusAddr enables the optional status HTTP server when non-empty,
	// e.g. ":8080". Empty disables it.
	StatusAddr string `json:"statusAddr"`
}

type Threads struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
	// APIBase defaults to the production Graph API endpoint.
	APIBase string `json:"apiBase"`
}

type Sheet struct {
	// URL is the full spreadsheet URL or a bare spreadsheet id.
	URL string `json:"url"`
	// Tab is the worksheet title; empty selects the first sheet.
	Tab string `json:"tab"`
	// CredentialsFile points at the service account key JSON.
	CredentialsFile string `json:"credentialsFile"`
}

type Scheduler struct {
	// Timezone is the IANA zone all window/at-time arithmetic uses.
	Timezone string `json:"timezone"`
}

const DefaultAPIBase = "https://graph.threads.net/v1.0"

var C Config

func init() {
	LoadConfig()
}

// LoadConfig reads the optional config file and applies environment
// overrides. main re-invokes it after the env files are loaded so
// values from config.env/.env take effect.
func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file is optional; env variables can carry everything.
			logger.GetLogger().Debug("Config file not found, relying on environment")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}

	initThreads(&C)
	initSheet(&C)
	initScheduler(&C)
	initApp(&C)
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initThreads(C *Config) {
	if v := strings.TrimSpace(os.Getenv("THREADS_USER_ID")); v != "" {
		C.Threads.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv("THREADS_ACCESS_TOKEN")); v != "" {
		C.Threads.AccessToken = v
	}
	if v := strings.TrimSpace(os.Getenv("THREADS_API_BASE")); v != "" {
		C.Threads.APIBase = v
	}
	if C.Threads.APIBase == "" {
		C.Threads.APIBase = DefaultAPIBase
	}
}

func initSheet(C *Config) {
	if v := strings.TrimSpace(os.Getenv("SHEET_URL")); v != "" {
		C.Sheet.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("SHEET_TAB")); v != "" {
		C.Sheet.Tab = v
	}
	if v := os.Getenv("GSPREAD_SERVICE_ACCOUNT_FILE"); v != "" {
		C.Sheet.CredentialsFile = v
	} else if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		C.Sheet.CredentialsFile = v
	} else if C.Sheet.CredentialsFile == "" {
		C.Sheet.CredentialsFile = ServiceAccountPath()
	}
}

func initScheduler(C *Config) {
	if v := strings.TrimSpace(os.Getenv("TIMEZONE")); v != "" {
		C.Scheduler.Timezone = v
	}
	if C.Scheduler.Timezone == "" {
		C.Scheduler.Timezone = "Asia/Tokyo"
	}
}

func initApp(C *Config) {
	if v := strings.TrimSpace(os.Getenv("STATUS_ADDR")); v != "" {
		C.App.StatusAddr = v
	}
}

// ServiceAccountPath resolves the Google service account key location:
// GSPREAD_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS, then
// ~/.config/gspread/service_account.json.
func ServiceAccountPath() string {
	if v := os.Getenv("GSPREAD_SERVICE_ACCOUNT_FILE"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "service_account.json"
	}
	return filepath.Join(home, ".config", "gspread", "service_account.json")
}

// Validate reports the missing required settings. Callers treat a non-nil
// error as fatal (exit code 2).
func (c *Config) Validate() error {
	if c.Threads.UserID == "" || c.Threads.AccessToken == "" {
		return errors.New("THREADS_USER_ID or THREADS_ACCESS_TOKEN missing in .env")
	}
	if c.Sheet.URL == "" {
		return errors.New("SHEET_URL missing in .env")
	}
	return nil
}
