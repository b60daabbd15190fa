package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/analytics"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/analyzer"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/camera"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/config"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/ffmpeg"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/httpapi"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/metrics"
	miniostorage "github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/minio"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/mqtt"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/pose"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/postgres"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/rabbitmq"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/render"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/tracing"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/upload"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/stream"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/usecase"
	"github.com/skywalker0803r/baseball-pose-analyzer/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting baseball-pose-analyzer", zap.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, version)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	// Stream fan-out: in-process hub plus optional MQTT mirror
	hub := stream.NewHub(cfg.StreamBuffer, log)
	publishers := stream.Fanout{hub}
	if cfg.MQTTBroker != "" {
		bridge, err := mqtt.Connect(mqtt.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			QoS:         cfg.MQTTQoS,
			Topics:      cfg.MQTTTopics,
		}, log)
		if err != nil {
			log.Warn("mqtt bridge disabled", zap.Error(err))
		} else {
			defer bridge.Close()
			publishers = append(publishers, bridge)
		}
	}

	// Analytics, journaled to Postgres when configured
	store := analytics.NewStore()
	var repo port.RecordRepository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		fatalOnErr(err, "connect to postgres")
		defer pool.Close()

		pgRepo := postgres.NewRecordRepository(pool)
		fatalOnErr(pgRepo.EnsureSchema(ctx), "ensure record schema")
		repo = pgRepo
	}
	records := usecase.NewRecordService(store, repo, log)
	if n, err := records.Restore(ctx); err != nil {
		log.Warn("record journal replay failed", zap.Error(err))
	} else if n > 0 {
		log.Info("record journal replayed", zap.Int("records", n))
	}

	// Uploads, mirrored to MinIO when configured
	files, err := upload.NewFileStore(cfg.UploadDir)
	fatalOnErr(err, "create upload dir")

	var archive port.VideoArchive
	if cfg.MinIOEndpoint != "" {
		a, err := miniostorage.NewArchive(miniostorage.ArchiveConfig{
			Endpoint:     cfg.MinIOEndpoint,
			AccessKey:    cfg.MinIOAccessKey,
			SecretKey:    cfg.MinIOSecretKey,
			UseSSL:       cfg.MinIOUseSSL,
			UploadBucket: cfg.MinIOUploadBucket,
		})
		fatalOnErr(err, "create minio archive")
		fatalOnErr(a.EnsureBucket(ctx), "ensure minio bucket")
		archive = a
	}
	uploads := usecase.NewUploadService(files, archive, log)

	// Pose extraction: external worker or simulated landmarks
	var extractor port.PoseExtractor
	if cfg.PoseWorkerCmd != "" {
		worker := pose.NewWorker(pose.WorkerConfig{
			Command: cfg.PoseWorkerCmd,
			Args:    cfg.PoseWorkerArgs,
			Timeout: cfg.PoseWorkerTimeout,
		}, log)
		fatalOnErr(worker.Start(), "start pose worker")
		defer worker.Close()
		extractor = worker
	} else {
		log.Warn("POSE_WORKER_CMD not set, using simulated pose extractor")
		extractor = pose.NewSimulated()
	}

	scorer, err := newScorer(cfg)
	fatalOnErr(err, "select scorer")

	runner := usecase.NewSessionRunner(
		extractor,
		analyzer.New(scorer),
		render.NewAnnotator(),
		render.NewJPEGEncoder(cfg.JPEGQuality),
		publishers,
		log,
		usecase.RunnerConfig{
			Decimation: cfg.AnalysisDecimation,
			EmitDelay:  cfg.AnalysisEmitDelay,
		},
	)

	videos := ffmpeg.NewOpener(files, ffmpeg.Config{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
	}, log)
	cameras := camera.NewOpener(camera.Config{
		Width:  cfg.CameraWidth,
		Height: cfg.CameraHeight,
		FPS:    cfg.CameraFPS,
		Frames: cfg.CameraFrames,
	}, log)

	// RabbitMQ status/DLQ publishers
	var (
		statusPub port.StatusPublisher
		dlqPub    port.DLQPublisher
	)
	if cfg.RabbitMQURL != "" {
		rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
		fatalOnErr(err, "connect to rabbitmq for publisher")
		defer rmqConn.Close()

		pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
		fatalOnErr(err, "create rabbitmq publisher")
		defer pub.Close()

		statusPub = rabbitmq.NewStatusPublisher(pub)
		dlqPub = rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)
	}

	registry := usecase.NewRegistry(cfg.AnalysisMaxSessions, log)
	analysis := usecase.NewAnalysisService(
		runner, registry, videos, cameras,
		publishers, statusPub, records,
		log,
		usecase.AnalysisConfig{AutoSave: cfg.AnalysisAutoSave},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumerDone := make(chan struct{})
	if cfg.RabbitMQURL != "" {
		requests := usecase.NewAnalysisRequestHandler(analysis, dlqPub, log)
		consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
			URL:         cfg.RabbitMQURL,
			Queue:       cfg.RabbitMQAnalysisQueue,
			Exchange:    cfg.RabbitMQExchange,
			DLQ:         cfg.RabbitMQDLQ,
			StatusQueue: cfg.RabbitMQStatusQueue,
			Prefetch:    cfg.RabbitMQPrefetch,
			WorkerCount: cfg.WorkerCount,
		}, requests.Handle, log)
		fatalOnErr(err, "create consumer")
		defer consumer.Close()

		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx); err != nil {
				log.Error("consumer error", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	// HTTP API
	handler := httpapi.NewHandler(analysis, uploads, records, hub, log, httpapi.Config{
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		CORSAllowAll:   cfg.CORSAllowAll,
	})
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpapi.NewRouter(handler),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		log.Info("http server starting", zap.Int("port", cfg.HTTPPort))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}
	if err := registry.Shutdown(shutdownCtx); err != nil {
		log.Warn("sessions did not stop in time", zap.Error(err))
	}
	<-consumerDone
	hub.Close()
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("baseball-pose-analyzer stopped")
}

func newScorer(cfg *config.Config) (analyzer.Scorer, error) {
	switch cfg.AnalysisScorer {
	case "geometry":
		return analyzer.NewGeometryScorer(cfg.AnalysisLeftHanded), nil
	case "random":
		return analyzer.NewRandomScorer(cfg.AnalysisScorerSeed), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", cfg.AnalysisScorer)
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
