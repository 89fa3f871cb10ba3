package storagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	memorystorage "github.com/Neamul01/breeze-time-server/internal/storage/memory"
	mongostorage "github.com/Neamul01/breeze-time-server/internal/storage/mongo"
	sqlstorage "github.com/Neamul01/breeze-time-server/internal/storage/sql"
)

const connectTimeout = 15 * time.Second

type Config struct {
	StorageType string
	Database    sqlstorage.Config
	Mongo       mongostorage.Config
}

func New(config Config) (storage.Storage, error) {
	var s storage.Storage
	var target string
	switch config.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "sql":
		s = sqlstorage.New(config.Database)
		target = fmt.Sprintf("database %s:%d", config.Database.Host, config.Database.Port)
	case "mongo":
		s = mongostorage.New(config.Mongo)
		target = fmt.Sprintf("mongo database %s", config.Mongo.Database)
	default:
		return nil, fmt.Errorf("unknown storage type %s", config.StorageType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return s, nil
}
