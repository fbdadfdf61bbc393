package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"StoryForge-server/compiler"
	"StoryForge-server/routers"
	"StoryForge-server/routers/api"
	"StoryForge-server/service"

	"github.com/gin-gonic/gin"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "storyforge",
		Short:         "StoryForge scene compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $STORYFORGE_CONFIG or config/config.yaml)")

	rootCmd.AddCommand(
		newServeCommand(&configFlag),
		newMigrateCommand(&configFlag),
		newSeedCommand(&configFlag),
		newChainCommand(&configFlag),
		newCompileCommand(&configFlag),
	)
	return rootCmd
}

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the batch worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := &api.Handler{
		Store:        a.store,
		Compiler:     a.compiler,
		Secrets:      a.secrets,
		Log:          a.log.With("component", "api"),
		PollInterval: time.Second,
	}

	processor := service.NewProcessor(a.store, a.compiler, a.log)
	if err := processor.Start(a.cfg); err != nil {
		a.log.Warn("batch worker unavailable, async batches disabled", "error", err)
	} else {
		queue := service.NewQueue(a.cfg, a.log)
		defer queue.Close()
		defer processor.Shutdown()
		h.Queue = queue
	}

	if a.cfg.MinIO.Endpoint != "" {
		objects, err := service.NewMinIOStore(a.cfg, a.log)
		if err != nil {
			return err
		}
		h.Packets = service.NewPacketExporter(a.store, objects, a.log)
	} else {
		a.log.Info("minio endpoint not set, packet export disabled")
	}

	gin.SetMode(a.cfg.Server.Mode)
	srv := &http.Server{
		Addr:              a.cfg.Server.Port,
		Handler:           routers.NewRouter(h, a.cfg, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMigrateCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the Mito sample project",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.store.SeedMito(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
}

func newChainCommand(configFlag *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "chain <project-id>",
		Short: "Show a project's continuity chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			chain, err := a.compiler.Chain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, chain)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderChain(chain))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newCompileCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <project-id> <shot-id>...",
		Short: "Compile shots synchronously and print the batch result",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			stderr := cmd.ErrOrStderr()
			res, err := a.compiler.CompileBatch(cmd.Context(), args[0], args[1:], func(done, total int, item compiler.BatchItem) {
				state := "ok"
				if item.Error != "" {
					state = item.Error
				}
				fmt.Fprintf(stderr, "[%d/%d] %s %s\n", done, total, item.ShotID, state)
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// renderChain draws the chain as a table, one row per shot.
func renderChain(chain []compiler.ChainLink) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"#", "Shot", "In", "Out", "Prev last frame", "Next first frame", "Description"})
	for _, l := range chain {
		tw.AppendRow(table.Row{
			strconv.Itoa(l.ShotNumber),
			l.ShotID,
			orDash(l.TransitionIn),
			orDash(l.TransitionOut),
			orDash(l.PrevLastFrame),
			orDash(l.NextFirstFrame),
			l.Description,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, WidthMax: 48},
	})
	return tw.Render()
}
