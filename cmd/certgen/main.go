// Command certgen renders certificates from the command line without
// starting the server.
//
//	certgen -template award.png -name "Jane Doe" -topic "for completing X" -date "01 Jan, 2025"
//	certgen -template award.png -csv people.csv -pdf -zip certificates.zip
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/YannKr/certgen/internal/app"
	"github.com/YannKr/certgen/internal/bulk"
	"github.com/YannKr/certgen/internal/certificate"
	"github.com/YannKr/certgen/internal/config"
	"github.com/YannKr/certgen/internal/model"
	"github.com/YannKr/certgen/internal/render"
	"github.com/YannKr/certgen/internal/storage"
	"github.com/YannKr/certgen/internal/store"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	var (
		templatePath = flag.String("template", "", "template image (required)")
		configPath   = flag.String("config", cfg.ConfigPath, "layout config JSON; defaults apply if missing")
		fontPath     = flag.String("font", cfg.FontPath, "TrueType/OpenType font")
		outDir       = flag.String("out", cfg.OutputDir, "output directory")
		name         = flag.String("name", "", "recipient name")
		topic        = flag.String("topic", "", "topic line")
		date         = flag.String("date", "", "date line")
		csvPath      = flag.String("csv", "", "CSV with name,topic,date columns for bulk mode")
		zipPath      = flag.String("zip", "certificates.zip", "archive written in bulk mode")
		withPDF      = flag.Bool("pdf", false, "also write a PDF per certificate")
		lenient      = flag.Bool("lenient", false, "skip malformed CSV rows instead of failing")
	)
	flag.Parse()

	if *templatePath == "" {
		fatal("missing required flag: -template")
	}
	tpl, err := imaging.Open(*templatePath, imaging.AutoOrientation(true))
	if err != nil {
		fatal("open template", "error", err)
	}
	layout, err := store.LoadOrDefault(context.Background(), &store.FileStore{Path: *configPath})
	if err != nil {
		fatal("load config", "error", err)
	}

	p := &certificate.Producer{
		Renderer:   render.New(render.NewFontLoader(), *fontPath),
		Template:   tpl,
		Config:     layout,
		IncludePDF: *withPDF,
		Sink:       &storage.DirSink{Dir: *outDir},
	}
	ctx := context.Background()

	if *csvPath == "" {
		art, err := p.Produce(ctx, model.CertificateRequest{Name: *name, Topic: *topic, Date: *date})
		if err != nil {
			fatal("render", "error", err)
		}
		fmt.Println(filepath.Join(*outDir, art.ImageName()))
		if art.PDF != nil {
			fmt.Println(filepath.Join(*outDir, art.PDFName()))
		}
		return
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		fatal("open csv", "error", err)
	}
	defer f.Close()
	job, err := bulk.ParseTable(f, *lenient)
	if err != nil {
		fatal("parse csv", "path", *csvPath, "error", err)
	}
	res, err := (&bulk.Runner{Lenient: *lenient}).Run(ctx, job, p.Produce)
	if err != nil {
		fatal("bulk", "error", err)
	}
	if err := os.WriteFile(*zipPath, res.Archive, 0644); err != nil {
		fatal("write archive", "error", err)
	}
	for _, rowErr := range res.Failed {
		slog.Warn("row skipped", "line", rowErr.Line, "name", rowErr.Name, "reason", rowErr.Reason)
	}
	fmt.Printf("%d certificates, %d entries in %s\n", res.Processed, len(res.Entries), *zipPath)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
