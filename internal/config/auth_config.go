package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetOTPExpiry() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetAccessTokenSecret() string {
	return viper.GetString("JWT_SECRET")
}

func (Auth) GetRefreshTokenSecret() string {
	return viper.GetString("JWT_REFRESH_SECRET")
}

func (Auth) GetIssuer() string {
	return viper.GetString("JWT_ISSUER")
}

func (Auth) GetAccessTokenExpiry() time.Duration {
	return durationOrDefault("JWT_EXPIRES_IN", 15*time.Minute)
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return durationOrDefault("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour)
}

func (Auth) GetOTPExpiry() time.Duration {
	return durationOrDefault("OTP_EXPIRES_IN", 10*time.Minute)
}

func durationOrDefault(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
