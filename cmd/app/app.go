package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/AhmadZaarour/store-manager-web-app/internal/app"
	config "github.com/AhmadZaarour/store-manager-web-app/internal/cfg"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/joho/godotenv"
)

//	@title			Store Manager API
//	@version		1.0
//	@description	Учёт товаров, остатков и продаж магазина.
//	@BasePath		/
func main() {
	envErr := godotenv.Load()

	log := logger.NewZapLogger(logger.OptionsFromEnv())
	defer log.Sync()

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warnf("failed to read .env: %v", envErr)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
