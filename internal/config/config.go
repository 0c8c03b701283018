package config

import "github.com/spf13/viper"

type Config interface {
	EnvConfig
	AuthConfig
	RedisConfig
	PostgresConfig
	MailConfig
	CorsConfig
}

type mainConfig struct {
	EnvVars
	Auth
	Redis
	Postgres
	Mail
	Cors
}

// New binds environment variables through viper and returns the composed
// configuration. Getters read live from viper, so tests can override
// individual values with viper.Set.
func New() Config {
	viper.AutomaticEnv()
	setDefaults()
	return mainConfig{}
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_NAME", "SkillSync")
	viper.SetDefault("ENV", "DEV")

	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_REFRESH_SECRET", "")
	viper.SetDefault("JWT_ISSUER", "skillsync")
	viper.SetDefault("JWT_EXPIRES_IN", "15m")
	viper.SetDefault("JWT_REFRESH_EXPIRES_IN", "168h")
	viper.SetDefault("OTP_EXPIRES_IN", "10m")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "")

	viper.SetDefault("DATABASE_URL", "postgres://localhost:5432/skillsync")

	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("SMTP_ACCOUNT", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("MAIL_SENDER", "noreply@skillsync.com")
	viper.SetDefault("MAIL_SUBJECT_PREFIX", "[SkillSync]")

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}
