package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/video-docgen/internal/cleanup"
	"github.com/codebuildervaibhav/video-docgen/internal/engine"
	"github.com/codebuildervaibhav/video-docgen/internal/handlers"
	"github.com/codebuildervaibhav/video-docgen/internal/intake"
	"github.com/codebuildervaibhav/video-docgen/internal/pipeline"
	"github.com/codebuildervaibhav/video-docgen/internal/queue"
	"github.com/codebuildervaibhav/video-docgen/internal/stages"
	"github.com/codebuildervaibhav/video-docgen/internal/storage"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Limits struct {
		MaxUploadMB int `yaml:"max_upload_mb"`
	} `yaml:"limits"`

	Storage struct {
		DataDir  string `yaml:"data_dir"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Pipeline struct {
		StageTimeoutSeconds int `yaml:"stage_timeout_seconds"`
		RetryAttempts       int `yaml:"retry_attempts"`
	} `yaml:"pipeline"`

	Engines struct {
		TranscriptionURL string `yaml:"transcription_url"`
		VisionURL        string `yaml:"vision_url"`
		AnalysisURL      string `yaml:"analysis_url"`
		APIKey           string `yaml:"api_key"`
	} `yaml:"engines"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`
}

func main() {
	// Optional .env for local overrides
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	log.Println("Initializing components...")

	// Job store and object storage
	jobStore := storage.NewMemoryJobStore()
	objectStore, err := storage.NewLocalObjectStore(config.Storage.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Document catalog
	catalog, err := storage.NewDocumentCatalog(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer catalog.Close()

	// Google Drive exporter (optional - may fail if credentials not set up)
	var exporter pipeline.Exporter
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		drive, err := storage.NewDriveExporter(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Documents will only be saved locally")
		} else {
			exporter = drive
			log.Println("Google Drive export enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Stage workers: remote engines where configured, built-in otherwise
	workers := buildWorkers(config, objectStore)

	// Orchestrator and worker pool
	orch := pipeline.New(jobStore, workers, objectStore, catalog, exporter, pipeline.Config{
		StageTimeout:  time.Duration(config.Pipeline.StageTimeoutSeconds) * time.Second,
		RetryAttempts: config.Pipeline.RetryAttempts,
	})

	workerCount := config.Workers.Count
	if workerCount <= 0 {
		workerCount = 2
	}
	workerPool := queue.NewWorkerPool(workerCount, orch)
	workerPool.Start()

	// Upload intake
	in := intake.New(jobStore, objectStore, config.Limits.MaxUploadMB)

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		config.Storage.DataDir,
		time.Duration(config.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(config.Cleanup.MaxAgeHours)*time.Hour,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	maxUploadMB := config.Limits.MaxUploadMB
	if maxUploadMB <= 0 {
		maxUploadMB = intake.DefaultMaxUploadMB
	}
	app := fiber.New(fiber.Config{
		BodyLimit: (maxUploadMB + 1) * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(in)
	processHandler := handlers.NewProcessHandler(workerPool)
	statusHandler := handlers.NewStatusHandler(jobStore)
	documentsHandler := handlers.NewDocumentsHandler(catalog)
	streamHandler := handlers.NewStreamHandler(jobStore, time.Second)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/video/upload", uploadHandler.Handle)
	app.Post("/video/process", processHandler.Handle)
	app.Get("/video/status/:id", statusHandler.Handle)
	app.Get("/video/jobs", statusHandler.List)

	// WebSocket progress stream
	app.Get("/ws/progress/:id", websocket.New(streamHandler.Handle))

	app.Get("/documents", documentsHandler.List)
	app.Get("/documents/:id/markdown", documentsHandler.Markdown)

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /video/upload           - Upload a video file")
	log.Println("   POST /video/process          - Start the documentation pipeline")
	log.Println("   GET  /video/status/:id       - Poll job status")
	log.Println("   GET  /video/jobs             - List recent jobs")
	log.Println("   GET  /ws/progress/:id        - WebSocket progress stream")
	log.Println("   GET  /documents              - List generated documents")
	log.Println("   GET  /documents/:id/markdown - Get document markdown")
	log.Println("   GET  /logs                   - View server logs")
	log.Println("   GET  /health                 - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
		workerPool.Stop()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// buildWorkers selects a remote engine or the built-in provider per stage.
func buildWorkers(config *Config, objects *storage.LocalObjectStore) stages.Workers {
	workers := stages.Workers{
		Transcriber:    stages.NewLocalTranscriber(),
		FrameExtractor: stages.NewLocalFrameExtractor(objects),
		Analyzer:       stages.NewLocalAnalyzer(),
		Generator:      stages.NewDocumentComposer(),
	}

	if url := config.Engines.TranscriptionURL; url != "" {
		workers.Transcriber = stages.NewEngineTranscriber(engine.NewClient(url, config.Engines.APIKey, 0))
		log.Printf("Using remote transcription engine at %s", url)
	}
	if url := config.Engines.VisionURL; url != "" {
		workers.FrameExtractor = stages.NewEngineFrameExtractor(engine.NewClient(url, config.Engines.APIKey, 0))
		log.Printf("Using remote vision engine at %s", url)
	}
	if url := config.Engines.AnalysisURL; url != "" {
		workers.Analyzer = stages.NewEngineAnalyzer(engine.NewClient(url, config.Engines.APIKey, 0))
		log.Printf("Using remote analysis engine at %s", url)
	}

	return workers
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
