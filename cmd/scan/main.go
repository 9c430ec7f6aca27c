// Package main локальный сканер: проверяет файлы каталога по базе сигнатур
// и пишет итог в историю сканирований.
//
//	scan -email user@example.com -full /path/to/dir
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/antivirus-core/internal/cache"
	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/logger"
	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/migrations"
	"github.com/magabrotheeeer/antivirus-core/internal/scanner"
	"github.com/magabrotheeeer/antivirus-core/internal/services/scan"
	"github.com/magabrotheeeer/antivirus-core/internal/services/signature"
	"github.com/magabrotheeeer/antivirus-core/internal/storage/repository"
)

func main() {
	os.Exit(run())
}

// run возвращает код выхода: 0 чисто, 1 найдены угрозы или ошибка, 2 неверные аргументы.
func run() int {
	email := flag.String("email", "", "владелец сканирования; без него история не пишется")
	full := flag.Bool("full", false, "тип сканирования full вместо quick")
	asJSON := flag.Bool("json", false, "вывести полный отчёт в JSON")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scan [-email addr] [-full] [-json] <path>")
		return 2
	}
	target := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Printf("cannot read config: %s", err)
		return 1
	}
	logg := logger.New(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.New(cfg.DatabaseFile, cfg.AcquireTimeout)
	if err != nil {
		logg.Error("failed to open storage", sl.Err(err))
		return 1
	}
	defer db.Close()
	if err := migrations.Run(db.DB); err != nil {
		logg.Error("failed to run migrations", sl.Err(err))
		return 1
	}

	signatures := signature.New(db, cache.NewMemory(cfg.MaxCacheSize, cfg.CacheTTL.Duration()), nil, logg)
	s := scanner.New(signatures, scan.New(db, cfg.MaxScanFiles, logg), cfg.MaxScanFiles, logg)

	scanType := scanner.ScanTypeQuick
	if *full {
		scanType = scanner.ScanTypeFull
	}

	report, err := s.Scan(ctx, *email, target, scanType)
	if err != nil {
		logg.Error("scan failed", slog.String("target", target), sl.Err(err))
		if report == nil {
			return 1
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logg.Error("failed to encode report", sl.Err(err))
			return 1
		}
	} else {
		for _, f := range report.Files {
			if f.Detected {
				fmt.Printf("THREAT %s: %s (risk %d)\n", f.Path, f.MalwareName, f.RiskLevel)
			}
		}
		fmt.Printf("Scan complete: %d files scanned, %d threats detected\n", report.FilesScanned, report.ThreatsDetected)
	}

	if report.ThreatsDetected > 0 || err != nil {
		return 1
	}
	return 0
}
