// Command validate assembles and validates STAC items from a directory of
// exported dataset attribute documents, without publishing anything. It is
// the offline check run before pointing the populator at a live STAC API.
//
// Usage:
//
//	go run ./cmd/validate -dir data/exports -family cmip6
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nimbusgeo/stac-populator/internal/adapter/thredds"
	"github.com/nimbusgeo/stac-populator/internal/pipeline"
	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "", "directory of exported dataset attribute JSON documents")
	familyName := flag.String("family", "cmip6", "dataset family: cmip6 or cordex6")
	cacheSize := flag.Int("schema-cache", 50, "compiled JSON schema cache size")
	verbose := flag.Bool("v", false, "log item assembly details")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		return errors.New("-dir is required")
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	validator, err := schemavalidate.NewCache(*cacheSize)
	if err != nil {
		return err
	}
	family, err := pipeline.LookupFamily(*familyName, validator, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return err
	}
	builder := pipeline.NewBuilder(logger, validator, family.ItemID, family.Helpers)

	loader, err := thredds.NewDirectoryLoader(*dir)
	if err != nil {
		return err
	}
	fmt.Printf("validating %d documents from %s\n\n", loader.Len(), *dir)

	ctx := context.Background()
	passed, failed := 0, 0
	for {
		name, bundle, err := loader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		item, err := builder.Build(ctx, name, bundle)
		if err != nil {
			failed++
			fmt.Printf("FAIL  %s\n      %v\n", name, err)
			continue
		}
		passed++
		fmt.Printf("PASS  %s -> %s\n", name, item.ID)
	}

	fmt.Printf("\n%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return fmt.Errorf("%d documents failed validation", failed)
	}
	return nil
}
