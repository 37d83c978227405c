package main

import (
	"flag"
	"log"
	"os"

	"github.com/TooLazyToCreate/bookshelf-service/config"
	"github.com/TooLazyToCreate/bookshelf-service/internal/app"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config")
	writeTemplate := flag.Bool("write-template", false, "write a config template to -config and exit")
	flag.Parse()

	if *writeTemplate {
		config.WriteTemplate(*configPath)
		return
	}

	/* A missing dotenv file is fine, the environment may be set by the platform */
	envFile := config.EnvFile(os.Getenv("GO_ENV"))
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Fatal("Error loading " + envFile + " file; Error - " + err.Error())
	}
	cfg := config.MustLoad(*configPath)

	zapConfig := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
	} else {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapConfig.Development = false
	}
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatal("Logger build failed with error - " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err = app.Run(logger, cfg); err != nil {
		logger.Fatal("Server have been stopped with error - " + err.Error())
	}
	logger.Info("Server have been stopped.")
}
