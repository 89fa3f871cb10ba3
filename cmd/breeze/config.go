package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Neamul01/breeze-time-server/internal/auth"
	"github.com/Neamul01/breeze-time-server/internal/logger"
	"github.com/Neamul01/breeze-time-server/internal/rabbit"
	"github.com/Neamul01/breeze-time-server/internal/reminder"
	internalgrpc "github.com/Neamul01/breeze-time-server/internal/server/grpc"
	internalhttp "github.com/Neamul01/breeze-time-server/internal/server/http"
	"github.com/Neamul01/breeze-time-server/internal/storagebuilder"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type RedisConfig struct {
	URL string
}

type Config struct {
	HTTPServer internalhttp.Config
	GrpcServer internalgrpc.Config
	Logger     logger.Config
	Storage    storagebuilder.Config
	Auth       auth.Config
	Reminder   reminder.Config
	Redis      RedisConfig
	Rabbit     rabbit.Config
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	// .env is optional; variables may come from the environment itself.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	v.SetDefault("httpServer.host", "0.0.0.0")
	v.SetDefault("httpServer.port", "5000")
	v.SetDefault("grpcServer.host", "127.0.0.1")
	v.SetDefault("grpcServer.port", "5001")
	v.SetDefault("logger.level", "WARN")
	v.SetDefault("logger.format", "text")
	v.SetDefault("storage.storageType", "memory")
	v.SetDefault("storage.mongo.database", "breeze")
	v.SetDefault("auth.tokenTTL", auth.DefaultTokenTTL)
	v.SetDefault("reminder.lead", reminder.DefaultLead)
	v.SetDefault("reminder.fireTimeout", "10s")
	v.SetDefault("reminder.locale", "en")
	v.SetDefault("reminder.dedup", "memory")
	v.SetDefault("reminder.markerTTL", reminder.DefaultMarkerTTL)
	v.SetDefault("reminder.warmUp", false)
	v.SetDefault("rabbit.enabled", false)
	v.SetDefault("rabbit.host", "127.0.0.1")
	v.SetDefault("rabbit.port", "5672")
	v.SetDefault("rabbit.queue", "breeze.reminders")

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
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if config.Auth.Secret == "" {
		return config, errors.New("auth.secret is not set")
	}
	return config, nil
}
