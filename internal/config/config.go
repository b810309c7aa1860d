package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	CycleIntervalSecs int
	HTTPAddr          string

	FramesDir     string
	FrameCount    int
	FontPath      string
	OutputGIFPath string

	TrendKeyword   string
	TrendTimeframe string
	Currency       string
	MempoolBaseURL string

	TwitterConsumerKey    string
	TwitterConsumerSecret string
	TwitterAccessToken    string
	TwitterAccessSecret   string

	TelegramBotToken string
	TelegramChatID   int64

	OpenAIAPIKey string
	OpenAIModel  string
}

func Load() *Config {
	cfg := &Config{
		TwitterConsumerKey:    os.Getenv("TWITTER_CONSUMER_KEY"),
		TwitterConsumerSecret: os.Getenv("TWITTER_CONSUMER_SECRET"),
		TwitterAccessToken:    os.Getenv("TWITTER_ACCESS_TOKEN"),
		TwitterAccessSecret:   os.Getenv("TWITTER_ACCESS_SECRET"),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.TwitterConsumerKey == "" || cfg.TwitterConsumerSecret == "" ||
		cfg.TwitterAccessToken == "" || cfg.TwitterAccessSecret == "" {
		log.Println("Warning: Twitter credentials incomplete, publishing will fail")
	}

	cfg.CycleIntervalSecs = 21600
	if v := strings.TrimSpace(os.Getenv("CYCLE_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CycleIntervalSecs = n
		}
	}

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.FramesDir = strings.TrimSpace(os.Getenv("FRAMES_DIR"))
	if cfg.FramesDir == "" {
		cfg.FramesDir = "frames"
	}

	cfg.FrameCount = 4
	if v := strings.TrimSpace(os.Getenv("FRAME_COUNT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FrameCount = n
		}
	}

	cfg.FontPath = strings.TrimSpace(os.Getenv("FONT_PATH"))
	if cfg.FontPath == "" {
		cfg.FontPath = "/usr/share/fonts/truetype/msttcorefonts/Arial.ttf"
	}

	cfg.OutputGIFPath = strings.TrimSpace(os.Getenv("OUTPUT_GIF_PATH"))
	if cfg.OutputGIFPath == "" {
		cfg.OutputGIFPath = "bitcoin_roller_coaster.gif"
	}

	cfg.TrendKeyword = strings.TrimSpace(os.Getenv("TREND_KEYWORD"))
	if cfg.TrendKeyword == "" {
		cfg.TrendKeyword = "bitcoin"
	}

	cfg.TrendTimeframe = strings.TrimSpace(os.Getenv("TREND_TIMEFRAME"))
	if cfg.TrendTimeframe == "" {
		cfg.TrendTimeframe = "today 12-m"
	}

	cfg.Currency = strings.ToUpper(strings.TrimSpace(os.Getenv("FIAT_CURRENCY")))
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}

	cfg.MempoolBaseURL = strings.TrimSpace(os.Getenv("MEMPOOL_BASE_URL"))

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q, mirror disabled", v)
		}
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	return cfg
}

// FramePaths lists the base animation frames in sequence order.
func (c *Config) FramePaths() []string {
	paths := make([]string, 0, c.FrameCount)
	for i := 0; i < c.FrameCount; i++ {
		paths = append(paths, filepath.Join(c.FramesDir, fmt.Sprintf("frame_%d.png", i)))
	}
	return paths
}
