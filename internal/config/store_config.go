package config

import "github.com/spf13/viper"

type RedisConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type Redis struct{}

var _ RedisConfig = Redis{}

func (Redis) GetRedisAddr() string {
	return viper.GetString("REDIS_ADDR")
}

func (Redis) GetRedisPassword() string {
	return viper.GetString("REDIS_PASSWORD")
}

func (Redis) GetRedisDB() int {
	return viper.GetInt("REDIS_DB")
}

func (Redis) GetRedisKeyPrefix() string {
	return viper.GetString("REDIS_KEY_PREFIX")
}

type PostgresConfig interface {
	GetDatabaseURL() string
}

type Postgres struct{}

var _ PostgresConfig = Postgres{}

func (Postgres) GetDatabaseURL() string {
	return viper.GetString("DATABASE_URL")
}
