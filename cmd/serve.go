package cmd

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"job-radar/internal/logger"
	"job-radar/internal/runstore"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored run results over a local web UI",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on")
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
}

var indexTemplate = template.Must(template.New("index").Parse(`<html>
<head><meta charset="utf-8"><title>Job Radar - Runs</title></head>
<body>
<h1>Runs</h1>
<ul>
{{range .}}
<li><a href="/results/{{.RunID}}">{{.RunID}}</a> - {{.Timestamp}} - {{.Query}} ({{.Status}})</li>
{{else}}
<li>no runs yet</li>
{{end}}
</ul>
</body>
</html>
`))

func serve() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store := runstore.New(filepath.Join(config.DataDir, runsSubdir))

	appSrv := fiber.New()

	appSrv.Get("/", func(c fiber.Ctx) error {
		metas, err := store.List()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		var buf bytes.Buffer
		if err := indexTemplate.Execute(&buf, metas); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		c.Type("html")
		return c.Send(buf.Bytes())
	})

	appSrv.Get("/api/runs", func(c fiber.Ctx) error {
		metas, err := store.List()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(metas)
	})

	appSrv.Get("/api/results/:run_id", func(c fiber.Ctx) error {
		result, err := store.Load(c.Params("run_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(result)
	})

	appSrv.Get("/results/:run_id", func(c fiber.Ctx) error {
		result, err := store.Load(c.Params("run_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}

		html, err := runstore.RenderHTML(result)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		c.Type("html")
		return c.Send(html)
	})

	port := viper.GetInt("serve.port")
	addr := fmt.Sprintf(":%d", port)

	logger.Info("serving run results", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- appSrv.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := appSrv.ShutdownWithContext(ctx); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
	}
}
