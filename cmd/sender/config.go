package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Neamul01/breeze-time-server/internal/logger"
	"github.com/Neamul01/breeze-time-server/internal/mail"
	"github.com/Neamul01/breeze-time-server/internal/rabbit"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type Config struct {
	Logger logger.Config
	Rabbit rabbit.Config
	Mail   mail.Config
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	v.SetDefault("rabbit.host", "127.0.0.1")
	v.SetDefault("rabbit.port", "5672")
	v.SetDefault("rabbit.user", "user")
	v.SetDefault("rabbit.password", "pass")
	v.SetDefault("rabbit.queue", "breeze.reminders")
	v.SetDefault("logger.level", "WARN")
	v.SetDefault("mail.port", "587")
	v.SetDefault("mail.from", "Breeze Time <no-reply@breeze.time>")

	err := v.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := v.AllKeys()
	for _, key := range keys {
		env := v.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			name := env[len(envConfigPrefix):]
			// Unset variables read as empty values.
			if _, ok := os.LookupEnv(name); !ok {
				v.Set(key, "")
				continue
			}
			err := v.BindEnv(key, name)
			if err != nil {
				return config, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
