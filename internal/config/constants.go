package config

import "time"

// Environment variable names.
const (
	EnvDataDir                = "RWT_DATA_DIR"
	EnvDatabasePath           = "DATABASE_PATH"
	EnvStationsPath           = "STATIONS_PATH"
	EnvBalanceRefreshInterval = "BALANCE_REFRESH_INTERVAL"
	EnvLowBalanceThreshold    = "LOW_BALANCE_THRESHOLD"
	EnvLogFile                = "RWT_LOG_FILE"
	EnvLogLevel               = "RWT_LOG_LEVEL"
	EnvProxyURL               = "HTTP_PROXY_URL"
)

// MinBalanceRefreshInterval is the shortest background polling period.
const MinBalanceRefreshInterval = 30 * time.Second

const (
	appDirName = "relaywatch"

	defaultDatabaseFile = "relaywatch.db"
	defaultStationsFile = "stations.json"
	defaultLogFile      = "relaywatch.log"

	defaultLowBalanceThreshold = 1.0
)
