package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Napageneral/chatvault/internal/config"
	"github.com/Napageneral/chatvault/internal/live"
	"github.com/Napageneral/chatvault/internal/logging"
	"github.com/Napageneral/chatvault/internal/pipeline"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"

	jsonOutput  bool
	verbose     bool
	contactsDir string
	archivePath string
	exportPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chatvault",
		Short: "Message archive extractor",
		Long: `Chatvault extracts contacts and messages from a Messages archive
(chat.db) and an AddressBook contact-card directory, reconciles the two
identity spaces, and exports a clean denormalized sqlite database.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-row skip notices")
	rootCmd.PersistentFlags().StringVar(&contactsDir, "contacts", "", "Contact-card directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "Path to chat.db (overrides config)")
	rootCmd.PersistentFlags().StringVar(&exportPath, "out", "", "Export database path (overrides config)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    buildDate,
				})
			} else {
				fmt.Printf("chatvault %s (%s, %s)\n", version, commit, buildDate)
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Run the full extraction and write the export database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, log := setup()
			defer log.Sync()

			p := pipeline.New(pipeline.Options{
				ContactsDir: cfg.ContactsDir,
				ArchivePath: cfg.ChatDB,
				Logger:      log,
			})
			res, err := p.Run(cmd.Context())
			if err != nil {
				fail(log, "extraction failed", err)
			}
			if err := ensureParentDir(cfg.ExportPath); err != nil {
				fail(log, "export failed", err)
			}
			if err := p.ExportTo(cfg.ExportPath); err != nil {
				fail(log, "export failed", err)
			}

			if jsonOutput {
				printJSON(res)
			} else {
				printResult(res, cfg.ExportPath)
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Run the extraction and report counts without exporting",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, log := setup()
			defer log.Sync()

			p := pipeline.New(pipeline.Options{
				ContactsDir: cfg.ContactsDir,
				ArchivePath: cfg.ChatDB,
				Logger:      log,
			})
			res, err := p.Run(cmd.Context())
			if err != nil {
				fail(log, "extraction failed", err)
			}
			if jsonOutput {
				printJSON(res)
			} else {
				printResult(res, "")
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Re-export whenever the archive changes",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, log := setup()
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runExport := func(ctx context.Context) {
				p := pipeline.New(pipeline.Options{
					ContactsDir: cfg.ContactsDir,
					ArchivePath: cfg.ChatDB,
					Logger:      log,
				})
				if _, err := p.Run(ctx); err != nil {
					log.Error("extraction failed", zap.Error(err))
					return
				}
				if err := p.ExportTo(cfg.ExportPath); err != nil {
					log.Error("export failed", zap.Error(err))
				}
			}

			// One full export up front, then follow changes.
			if err := ensureParentDir(cfg.ExportPath); err != nil {
				fail(log, "export failed", err)
			}
			runExport(ctx)

			debounce := time.Duration(cfg.Watch.DebounceSeconds) * time.Second
			err := live.Watch(ctx, cfg.ChatDB, debounce, log, runExport)
			if err != nil && err != context.Canceled {
				fail(log, "watch failed", err)
			}
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config, applies flag overrides, and builds the logger.
func setup() (*config.Config, *zap.Logger) {
	log := logging.New(verbose)

	cfg, err := config.Load()
	if err != nil {
		fail(log, "failed to load config", err)
	}
	if contactsDir != "" {
		cfg.ContactsDir = contactsDir
	}
	if archivePath != "" {
		cfg.ChatDB = archivePath
	}
	if exportPath != "" {
		cfg.ExportPath = exportPath
	}
	return cfg, log
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func printResult(res pipeline.RunResult, exportPath string) {
	fmt.Printf("Contacts:  %d (%d matched to handles)\n", res.Contacts, res.ContactsMatched)
	fmt.Printf("Messages:  %d kept of %d rows\n", res.Messages, res.RowsSeen)
	for reason, n := range res.RowsSkipped {
		fmt.Printf("  skipped %s: %d\n", reason, n)
	}
	if exportPath != "" {
		fmt.Printf("Exported to %s\n", exportPath)
	}
	fmt.Printf("Done in %s\n", res.Duration)
}

func fail(log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	if jsonOutput {
		printJSON(map[string]interface{}{"ok": false, "message": fmt.Sprintf("%s: %v", msg, err)})
	}
	log.Sync()
	os.Exit(1)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
