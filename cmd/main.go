package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/smartmenu/config"
	"github.com/ray-remotestate/smartmenu/database"
	"github.com/ray-remotestate/smartmenu/server"
	"github.com/ray-remotestate/smartmenu/telegram"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.Init()
	telegram.Init()

	if err := database.ConnectAndMigrate(); err != nil {
		logrus.Panicf("failed to initialize database, error: %v", err)
	}
	logrus.Println("migration is successful")

	svr := server.SetupRoutes()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.Infof("starting server on port %s", config.Port)
		if err := svr.Run(config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Panic("server stopped unexpectedly")
		}
	}()

	<-done

	logrus.Info("shutting down...")
	if err := svr.Shutdown(shutdownTimeout); err != nil {
		logrus.WithError(err).Error("failed to shut down server cleanly")
	}
	if err := database.ShutdownDatabase(); err != nil {
		logrus.WithError(err).Error("failed to close database connection")
	}
}
