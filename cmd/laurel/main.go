package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/Ramsey-B/laurel/config"
	masterrepo "github.com/Ramsey-B/laurel/internal/repositories/masterrecord"
	supplierrepo "github.com/Ramsey-B/laurel/internal/repositories/supplierrecord"
	"github.com/Ramsey-B/laurel/pkg/catalog"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/events"
	"github.com/Ramsey-B/laurel/pkg/graph"
	"github.com/Ramsey-B/laurel/pkg/grouping"
	"github.com/Ramsey-B/laurel/pkg/ingest"
	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/middleware"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/reconcile"
	grouproutes "github.com/Ramsey-B/laurel/pkg/routes/group"
	"github.com/Ramsey-B/laurel/pkg/routes/health"
	masterroutes "github.com/Ramsey-B/laurel/pkg/routes/masterrecord"
	reconcileroutes "github.com/Ramsey-B/laurel/pkg/routes/reconcile"
	supplierroutes "github.com/Ramsey-B/laurel/pkg/routes/supplierrecord"
	"github.com/Ramsey-B/laurel/pkg/scoring"
	"github.com/Ramsey-B/laurel/pkg/startup"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/Ramsey-B/laurel/pkg/tracing/exporters"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	log := logger.WithFields(map[string]any{"app": cfg.AppName})

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func run(cfg config.Config, log ectologger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, log); err != nil {
		return err
	}

	// Tracing
	if cfg.TracingEnabled {
		tracingCfg := tracing.Config{
			ServiceName: cfg.AppName,
			Version:     version,
		}
		if cfg.TracingOTLPEndpoint != "" {
			otlpCfg := exporters.DefaultOTLPConfig()
			otlpCfg.Endpoint = cfg.TracingOTLPEndpoint
			otlpCfg.Protocol = cfg.TracingOTLPProtocol
			otlpCfg.Insecure = cfg.TracingOTLPInsecure
			tracingCfg.OTLP = &otlpCfg
		}

		shutdownTracing, err := tracing.Setup(ctx, tracingCfg)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				log.WithError(err).Warn("Failed to flush trace spans")
			}
		}()
	}

	// Database
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)

	var sqlxDB *sqlx.DB
	var db database.DB
	var graphClient *graph.Client
	var consumer *kafka.Consumer
	var producer *kafka.Producer

	runner := startup.NewStartup(log, cfg.StartupMaxAttempts)

	runner.AddDependency(&startup.Func{
		Name: "postgres",
		StartFunc: func(ctx context.Context) error {
			var err error
			sqlxDB, err = sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
			if err != nil {
				return err
			}
			sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
			db = database.NewDatabaseInstance(sqlxDB, log)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
	})

	runner.AddDependency(&startup.Func{
		Name: "migrations",
		Deps: []string{"postgres"},
		StartFunc: func(ctx context.Context) error {
			return database.RunMigrations(log, sqlxDB, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
			}, cfg.DatabaseName)
		},
	})

	if cfg.GraphEnabled {
		runner.AddDependency(&startup.Func{
			Name: "graph",
			StartFunc: func(ctx context.Context) error {
				client, err := graph.NewClient(graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
				}, log)
				if err != nil {
					return err
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					return err
				}
				graphClient = client
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				if graphClient != nil {
					return graphClient.Close(ctx)
				}
				return nil
			},
		})
	}

	if cfg.KafkaEventsEnabled {
		runner.AddDependency(&startup.Func{
			Name: "kafka-producer",
			StartFunc: func(ctx context.Context) error {
				producerCfg := kafka.DefaultProducerConfig()
				producerCfg.Brokers = cfg.KafkaBrokers
				producerCfg.Topic = cfg.KafkaEventsTopic
				producerCfg.BatchSize = cfg.KafkaBatchSize
				producerCfg.BatchTimeout = time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond
				producerCfg.RequiredAcks = cfg.KafkaRequiredAcks
				producerCfg.Compression = cfg.KafkaCompression

				p, err := kafka.NewProducer(producerCfg, log)
				if err != nil {
					return err
				}
				producer = p
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				if producer != nil {
					return producer.Close()
				}
				return nil
			},
		})
	}

	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop(context.Background())

	// Reference catalog
	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.WithError(err).Warnf("Failed to load reference catalog from %s; continuing without it", cfg.CatalogPath)
			cat = nil
		}
	}

	// Repositories and services
	supplierRepo := supplierrepo.NewRepository(db, log)
	masterRepo := masterrepo.NewRepository(db, log)
	processor := ingest.NewProcessor(log, supplierRepo)

	groupingCfg := grouping.DefaultConfig()
	groupingCfg.SimilarityThreshold = cfg.SimilarityThreshold
	groupingCfg.NameWeight = cfg.NameWeight
	groupingCfg.CodeWeight = cfg.CodeWeight
	grouper := grouping.NewEngine(scoring.NewScorer(), cat, groupingCfg)

	var notifier reconcile.Notifier
	if producer != nil {
		notifier = events.NewEmitter(log, producer)
	}
	var projector reconcile.Projector
	if graphClient != nil {
		projector = graph.NewProjectionService(graphClient, log)
	}

	service := reconcile.NewService(log, db, supplierRepo, masterRepo, grouper, reconcile.NewEngine(cat), cat, notifier, projector)

	if cfg.SeedMasters && cfg.CatalogTenantID != "" {
		if _, err := service.SeedMasters(ctx, cfg.CatalogTenantID); err != nil {
			return fmt.Errorf("failed to seed master records: %w", err)
		}
	}

	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*supplierrepo.Repository](container, supplierRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*masterrepo.Repository](container, masterRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*ingest.Processor](container, processor); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*reconcile.Service](container, service); err != nil {
		return err
	}

	// Feed consumer
	if cfg.KafkaConsumerEnabled {
		consumerCfg := kafka.DefaultConsumerConfig()
		consumerCfg.Brokers = cfg.KafkaBrokers
		consumerCfg.Topic = cfg.KafkaFeedTopic
		consumerCfg.GroupID = cfg.KafkaConsumerGroup

		consumer, err = kafka.NewConsumer(consumerCfg, log)
		if err != nil {
			return err
		}

		err = consumer.Start(ctx, func(ctx context.Context, msg *kafka.FeedMessage) error {
			_, err := processor.Resync(ctx, msg.TenantID, models.ResyncRequest{
				Taxonomy:     msg.Taxonomy,
				SupplierID:   msg.SupplierID,
				SupplierName: msg.SupplierName,
				Records:      msg.Records,
			})
			return err
		})
		if err != nil {
			return err
		}
		defer consumer.Stop()
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.HTTPErrorHandler = middleware.Error(log)

	checker := health.NewChecker(db, graphClient, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	supplierroutes.Register(api.Group("/suppliers/records"))
	masterroutes.Register(api.Group("/masters"))
	grouproutes.Register(api.Group("/groups"))
	reconcileroutes.Register(api.Group("/reconcile"))

	checker.SetReady(true)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down", sig)
	}

	checker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	return e.Shutdown(shutdownCtx)
}
