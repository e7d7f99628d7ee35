package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dishdash-app/dishdash/account"
	"github.com/dishdash-app/dishdash/blob"
	"github.com/dishdash-app/dishdash/catalog"
	"github.com/dishdash-app/dishdash/identity"
	"github.com/dishdash-app/dishdash/orders"
	"github.com/dishdash-app/dishdash/store"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()
	retcode := 0
	defer func() {
		os.Exit(retcode)
	}()

	_ = godotenv.Load()

	slog.InfoContext(ctx, "Launching dishdash-api")

	slog.InfoContext(ctx, "Loading config")
	settings, err := LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("err", err))
		retcode = 1
		return
	}

	slog.InfoContext(ctx, "Setting up opentelemetry")
	otelShutdown, err := SetupOTelSDK(ctx, settings)
	if err != nil {
		slog.Error("failed to setup telemetry", slog.Any("err", err))
		retcode = 1
		return
	}

	defer func() {
		err = errors.Join(err, otelShutdown(context.Background()))
		if err != nil {
			slog.ErrorContext(
				ctx,
				"failed to shutdown opentelemetry providers",
				slog.Any("err", err),
			)
			retcode = 1
		}
	}()

	healthChecks := make([]healthgo.Config, 0, 3)

	var bus store.SnapshotBus = store.NewChannelBus()
	if settings.Nats.Enabled {
		slog.InfoContext(ctx, "Connecting to NATS server")
		nc, err := settings.Nats.GetNatsClient()
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to NATS server", slog.Any("err", err))
			retcode = 1
			return
		}
		defer nc.Close()
		bus = store.NewNATSBus(nc, settings.Nats.SubjectPrefix)
		healthChecks = append(healthChecks, healthgo.Config{
			Name: "nats",
			Check: func(ctx context.Context) error {
				if !nc.IsConnected() {
					return errors.New("NATS connection is not active")
				}
				return nil
			},
		})
	}

	var st store.Store = store.NewMemory(bus)
	if settings.Mongo.Enabled {
		slog.InfoContext(ctx, "Connecting to MongoDB")
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(settings.Mongo.URI))
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to MongoDB", slog.Any("err", err))
			retcode = 1
			return
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.ErrorContext(ctx, "failed to disconnect MongoDB", slog.Any("err", err))
			}
		}()
		st = store.NewMongo(client.Database(settings.Mongo.Database), bus)
		healthChecks = append(healthChecks, healthgo.Config{
			Name: "mongo",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			},
		})
	}

	var revoked identity.RevocationList = identity.NewMemoryRevocationList()
	if settings.Redis.Enabled {
		slog.InfoContext(ctx, "Connecting to Redis")
		redisClient := redis.NewClient(&redis.Options{
			Addr:     settings.Redis.Addr,
			Username: settings.Redis.Username,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		})
		defer redisClient.Close()
		redisRevoked := identity.NewRedisRevocationList(redisClient)
		revoked = redisRevoked
		healthChecks = append(healthChecks, healthgo.Config{
			Name:  "redis",
			Check: redisRevoked.Ping,
		})
	}

	blobs, err := blob.NewDisk(settings.Blob.Root, settings.Blob.BaseURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open blob root", slog.Any("err", err))
		retcode = 1
		return
	}

	tokens := identity.NewTokenManager(
		settings.Auth.Secret,
		time.Duration(settings.Auth.TokenTTLInHours)*time.Hour,
	)
	ids := identity.NewService(st, tokens, revoked)
	feed := catalog.NewFeed(st)
	ords := orders.NewService(st)
	accounts := account.NewService(st, blobs, ids, ords)

	slog.InfoContext(ctx, "Setting up health checker")
	health, err := healthgo.New(
		healthgo.WithComponent(healthgo.Component{
			Name:    settings.App.Name,
			Version: settings.App.Version,
		}),
		healthgo.WithChecks(healthChecks...),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create health checker", slog.Any("err", err))
		retcode = 1
		return
	}

	errChan := make(chan error)
	server := echo.New()
	server.HideBanner = true

	NewMainHandler(server, settings, ids, feed, ords, accounts, health)
	server.Static(settings.Blob.BaseURL, blobs.Root())
	pprof.Register(server)

	go func() {
		slog.InfoContext(ctx, "listening for requests", slog.String("ip", settings.HTTP.IP), slog.String("port", settings.HTTP.Port))
		errChan <- server.Start(fmt.Sprintf("%s:%s", settings.HTTP.IP, settings.HTTP.Port))
	}()

	select {
	case err = <-errChan:
		slog.ErrorContext(ctx, "error when running server", slog.Any("err", err))
		retcode = 1
		return
	case <-ctx.Done():
		// Wait for first Signal arrives
	}

	err = server.Shutdown(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to shutdown gracefully the server", slog.Any("err", err))
	}
}
