package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := viper.GetString("PORT")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return viper.GetString("APP_NAME")
}

func (EnvVars) GetEnv() string {
	return viper.GetString("ENV")
}
