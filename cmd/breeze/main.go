package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/app"
	"github.com/Neamul01/breeze-time-server/internal/auth"
	"github.com/Neamul01/breeze-time-server/internal/logger"
	"github.com/Neamul01/breeze-time-server/internal/rabbit"
	"github.com/Neamul01/breeze-time-server/internal/reminder"
	internalgrpc "github.com/Neamul01/breeze-time-server/internal/server/grpc"
	internalhttp "github.com/Neamul01/breeze-time-server/internal/server/http"
	internalws "github.com/Neamul01/breeze-time-server/internal/server/ws"
	"github.com/Neamul01/breeze-time-server/internal/storagebuilder"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const stopTimeout = time.Second * 3

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	if flag.Arg(0) == "version" {
		printVersion()
		return
	}

	if err := run(); err != nil {
		log.Errorf("breeze stopped: %v", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := NewConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := stor.Close(ctx); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}()

	hub := internalws.NewHub()
	opts := []reminder.Option{reminder.WithPublishers(hub)}

	if config.Reminder.Dedup == "redis" {
		client, err := newRedisClient(config.Redis)
		if err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		defer client.Close()
		opts = append(opts, reminder.WithMarker(reminder.NewRedisMarker(client, config.Reminder.MarkerTTL)))
	}

	if config.Rabbit.Enabled {
		r := rabbit.New(config.Rabbit)
		if err := r.Connect(); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		defer r.Close()
		opts = append(opts, reminder.WithPublishers(rabbit.NewPublisher(r)))
	}

	reminders := reminder.New(config.Reminder, stor, stor, opts...)
	tokens := auth.New(config.Auth)
	breeze := app.New(stor, reminders, tokens)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	reminders.Start(ctx)
	defer reminders.Stop()

	if config.Reminder.WarmUp {
		if events, err := breeze.ListEvents(ctx, ""); err != nil {
			log.Warnf("failed to warm up reminders: %v", err)
		} else {
			log.Infof("reminders warmed up from %d events", len(events))
		}
	}

	grpcServer := internalgrpc.NewServer(config.GrpcServer)
	go func() {
		if err := grpcServer.Start(ctx); err != nil {
			log.Errorf("failed to start grpc server: %v", err)
			cancel()
		}
	}()

	mux, err := grpcServer.GatewayMux(ctx)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	httpServer := internalhttp.NewServer(config.HTTPServer, breeze, tokens, hub)

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		if err := httpServer.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
		hub.Close()
		if err := grpcServer.Stop(ctx); err != nil {
			log.Error("failed to stop grpc server: " + err.Error())
		}
	}()

	log.Info("breeze is running...")

	if err := httpServer.Start(ctx, mux); err != nil {
		cancel()
		return err
	}
	return nil
}

func newRedisClient(config RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}
