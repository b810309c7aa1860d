package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitcoin-roller-coaster/internal/advisor"
	"bitcoin-roller-coaster/internal/bot"
	"bitcoin-roller-coaster/internal/config"
	"bitcoin-roller-coaster/internal/fetch"
	"bitcoin-roller-coaster/internal/handler"
	"bitcoin-roller-coaster/internal/job"
	"bitcoin-roller-coaster/internal/provider"
	"bitcoin-roller-coaster/internal/publisher"
	"bitcoin-roller-coaster/internal/render"
	"bitcoin-roller-coaster/internal/service"
	"bitcoin-roller-coaster/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	newFetcherFunc = func(tracer trace.Tracer, cfg *config.Config) service.SnapshotFetcher {
		prices := provider.NewCoinGeckoProvider(tracer)
		chain := provider.NewMempoolProvider(tracer, cfg.MempoolBaseURL)
		trends := provider.NewTrendsProvider(tracer, cfg.TrendKeyword, cfg.TrendTimeframe)
		return fetch.New(tracer, prices, chain, trends, cfg.Currency)
	}
	newRendererFunc = func(tracer trace.Tracer, cfg *config.Config) service.FrameRenderer {
		return render.New(tracer, cfg.FramePaths(), cfg.FontPath)
	}
	newPublisherFunc = func(tracer trace.Tracer, cfg *config.Config) service.Publisher {
		return publisher.NewTwitterPublisher(tracer, publisher.Credentials{
			ConsumerKey:    cfg.TwitterConsumerKey,
			ConsumerSecret: cfg.TwitterConsumerSecret,
			AccessToken:    cfg.TwitterAccessToken,
			AccessSecret:   cfg.TwitterAccessSecret,
		})
	}
	newAnnouncerFunc       = bot.NewAnnouncer
	startAnnouncerFunc     = func(a *bot.Announcer) { go a.Start() }
	newCycleJobFunc        = job.NewCycleJob
	startJobFunc           = func(j *job.CycleJob, ctx context.Context) { go j.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	fetcher := newFetcherFunc(tracer, cfg)
	renderer := newRendererFunc(tracer, cfg)
	pub := newPublisherFunc(tracer, cfg)

	cycles := service.NewCycleService(tracer, fetcher, renderer, pub).
		WithOutputPath(cfg.OutputGIFPath)

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		announcer, err := newAnnouncerFunc(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram mirror disabled: %v", err)
		} else {
			cycles.WithAnnouncer(announcer)
			startAnnouncerFunc(announcer)
		}
	}

	if cfg.OpenAIAPIKey != "" {
		cycles.WithQuips(advisor.NewQuipService(tracer, advisor.NewOpenAIClient(cfg.OpenAIAPIKey), cfg.OpenAIModel))
	}

	cycleJob := newCycleJobFunc(tracer, cycles, time.Duration(cfg.CycleIntervalSecs)*time.Second)
	startJobFunc(cycleJob, ctx)

	h := newHandlerFunc(tracer, cycles)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("bitcoin-roller-coaster"))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
