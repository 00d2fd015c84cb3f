package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS  = "" // e.g. "console.example.com,console2.example.com"
	MYSQL_DSN    = "" // MySQL will be used if this is set
	SQLITE_FILE  = "" // SQLite will be used if MYSQL_DSN is not configured and this is set
	BIND_ADDRESS = "0.0.0.0:8080"
	APP_BASE_URL = "http://localhost:8080" // Used to compose invite URLs returned to admins
	DEBUG_MODE   = true

	// Default prefix template for new invites. Recognized tokens: {label}, {YYYY}, {MM}, {DD}
	DEFAULT_UPLOAD_PREFIX = "invites/{label}/{YYYY}/{MM}/{DD}/"

	// Public invite endpoints, per (endpoint, token, client address)
	INVITE_RATE_LIMIT      = 60
	INVITE_RATE_WINDOW_MIN = 10
	INVITE_RATE_SWEEP_MIN  = 5

	UPLOAD_POLICY_TTL_SEC = 3600 // POST policy validity
	DOWNLOAD_URL_TTL_SEC  = 3600 // presigned GET validity
	ADMIN_UPLOAD_TTL_SEC  = 900  // presigned PUT validity (admin file browser)
)

func init() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("APP_BASE_URL", &APP_BASE_URL)
	readEnvString("DEFAULT_UPLOAD_PREFIX", &DEFAULT_UPLOAD_PREFIX)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvInt("INVITE_RATE_LIMIT", &INVITE_RATE_LIMIT)
	readEnvInt("INVITE_RATE_WINDOW_MIN", &INVITE_RATE_WINDOW_MIN)
	readEnvInt("INVITE_RATE_SWEEP_MIN", &INVITE_RATE_SWEEP_MIN)
	readEnvInt("UPLOAD_POLICY_TTL_SEC", &UPLOAD_POLICY_TTL_SEC)
	readEnvInt("DOWNLOAD_URL_TTL_SEC", &DOWNLOAD_URL_TTL_SEC)
	readEnvInt("ADMIN_UPLOAD_TTL_SEC", &ADMIN_UPLOAD_TTL_SEC)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
