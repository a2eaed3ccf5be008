package config

import "github.com/sreenadh34/biznavigate-backend-sub002/analytics"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig     RedisStorageConfig
	HttpPort        int
	StorageType     StorageType
	LogLevel        string
	AnalyticsConfig analytics.DataCollectorConfig

	MaxRetryAttempts  int
	RetryDelaySeconds []int
	DedupTTLSeconds   int
	MaxIterations     int

	BreakerFailureThreshold   int
	BreakerSuccessThreshold   int
	BreakerOpenTimeoutSeconds int
	BreakerWindowSeconds      int
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}
