package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/hocr-report/internal/common"
	"github.com/joseph-ayodele/hocr-report/internal/convert"
)

func main() {
	if err := common.LoadDotEnv(".env"); err != nil {
		log.Fatalf("loading .env: %v", err)
	}
	cfg := common.LoadConfig()
	if len(os.Args) == 2 {
		cfg.Convert.EndpointURL = os.Args[1]
	}
	if err := cfg.Validate(); err != nil {
		log.Println("ERROR:", err)
		log.Println("  usage: convertcheck [endpoint-url]  (or set CONVERT_ENDPOINT_URL)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := convert.NewClient(convert.Config{
		EndpointURL: cfg.Convert.EndpointURL,
		Timeout:     10 * time.Second,
	}, nil)

	start := time.Now()
	if err := client.HealthCheck(ctx); err != nil {
		log.Fatalf("convert health: FAIL (%v)", err)
	}
	log.Printf("convert health: OK (%s in %s)", client.Endpoint(), time.Since(start).Round(time.Millisecond))
}
