package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinycd/tinycd/common/util"
	"github.com/tinycd/tinycd/common/version"
	"github.com/tinycd/tinycd/server/app"
)

func main() {
	fmt.Printf("tinycd server v%s\n", version.VersionToString())
	fmt.Printf("Starting with args: %v\n", util.FilterOSArgs(os.Args, app.LogSafeFlags))

	config, err := app.ConfigFromFlags()
	if err != nil {
		log.Fatalf("Error parsing flags: %s", err)
	}

	app, cleanup, err := app.New(context.Background(), config)
	if err != nil {
		log.Fatalf("Error creating app: %s", err)
	}
	defer cleanup()
	app.APIServer.Start()

	// Wait for SIGINT or SIGTERM before shutting down server
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	err = app.APIServer.Stop(ctx)
	if err != nil {
		log.Fatal(err.Error())
	}

	// Let any pipeline in flight finish before closing the database.
	app.ExecutorService.Wait()
	log.Print("Server shutdown complete")
}
