package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/auditgrid/auditgrid/internal/chat"
	"github.com/auditgrid/auditgrid/internal/export"
	"github.com/auditgrid/auditgrid/internal/search"
	"github.com/auditgrid/auditgrid/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:   "auditgrid",
		Short: "Degree-audit parsing and four-year schedule planning",
	}

	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var (
		addr            string
		catalogPath     string
		uploadDir       string
		snapshotDir     string
		allowedOrigins  []string
		chatProvider    string
		chatModel       string
		chatUpstream    string
		sheetsCredsPath string
		prod            bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(prod)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer log.Sync() //nolint:errcheck // stderr sync failure is benign

			var catalog *search.Catalog
			if catalogPath != "" {
				catalog, err = search.Load(catalogPath)
				if err != nil {
					return err
				}
				log.Info("catalog loaded", zap.String("path", catalogPath), zap.Int("courses", catalog.Len()))
			} else {
				log.Warn("no catalog configured; search disabled")
			}

			var chatSvc *chat.Service
			if chatProvider != "" || chatUpstream != "" {
				chatSvc, err = chat.NewService(chat.Options{
					Provider: chatProvider,
					Model:    chatModel,
					Upstream: chatUpstream,
				})
				if err != nil {
					return err
				}
				log.Info("chat configured", zap.String("provider", chatProvider))
			} else {
				log.Warn("no chat provider configured; chat disabled")
			}

			exporter, err := export.NewExporter(context.Background(), sheetsCredsPath)
			if err != nil {
				return err
			}
			if exporter == nil {
				log.Warn("no sheets credentials configured; export disabled")
			}

			srv := server.New(server.Config{
				Addr:           addr,
				UploadDir:      uploadDir,
				SnapshotDir:    snapshotDir,
				AllowedOrigins: allowedOrigins,
			}, log, catalog, chatSvc, exporter)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":5050", "listen address")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to the course catalog JSON")
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "uploads", "directory for spooled uploads")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "parsed-outputs", "directory for parsed audit snapshots")
	cmd.Flags().StringSliceVar(&allowedOrigins, "allowed-origins", nil, "CORS origins to allow (default: all)")
	cmd.Flags().StringVar(&chatProvider, "chat-provider", "", "chat backend: upstream, anthropic, openai, or google")
	cmd.Flags().StringVar(&chatModel, "chat-model", "", "model name for SDK chat providers")
	cmd.Flags().StringVar(&chatUpstream, "chat-upstream", "", "URL of the external planning agent")
	cmd.Flags().StringVar(&sheetsCredsPath, "sheets-credentials", "", "path to the Google service account key")
	cmd.Flags().BoolVar(&prod, "prod", false, "use production logging")

	return cmd
}

func newLogger(prod bool) (*zap.Logger, error) {
	if prod {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
