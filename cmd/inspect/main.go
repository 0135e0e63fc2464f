package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/aisites/siteeditor/internal/config"
	"github.com/aisites/siteeditor/internal/logging"
	"github.com/aisites/siteeditor/internal/storage"
	"github.com/aisites/siteeditor/internal/transform"
)

// inspect prints what the plan generator would see for a document: the
// element index and the slimmed body preview.
func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.DefaultPath(), "Path to config file (JSON or YAML)")
	site := flag.String("site", "", "Site id to read from the configured store")
	file := flag.String("file", "", "Read an HTML file instead of the store")
	showIndex := flag.Bool("index", true, "Print the element index")
	showPreview := flag.Bool("preview", true, "Print the slimmed body preview")
	flag.Parse()

	if (*site == "") == (*file == "") {
		fmt.Fprintf(os.Stderr, "Usage: inspect (-site <id> | -file <path>) [-index] [-preview]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	doc, err := load(*configPath, *site, *file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := report(os.Stdout, string(doc), *showIndex, *showPreview); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func load(configPath, site, file string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	store, err := storage.New(cfg.Storage, logging.BuildLogger("warn", "text"))
	if err != nil {
		return nil, err
	}
	return store.Load(context.Background(), site)
}

func report(w io.Writer, document string, showIndex, showPreview bool) error {
	if showIndex {
		body, found := transform.ExtractBody(document)
		if !found {
			body = document
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(transform.BuildIndex(body)); err != nil {
			return fmt.Errorf("encode index: %w", err)
		}
		fmt.Fprintf(w, "INDEX:\n%s\n", buf.String())
	}
	if showPreview {
		fmt.Fprintf(w, "BODY_PREVIEW:\n%s\n", transform.Slim(document))
	}
	return nil
}
