package main

import (
	"fmt"
	"os"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
	"github.com/urfave/cli/v2"

	"github.com/lecturely/ingest/config"
	"github.com/lecturely/ingest/uploadclient"
)

func main() {
	logger := log.NewLogger()

	app := &cli.App{
		Name:      "vidup",
		Usage:     "Upload lecture videos for transcription",
		ArgsUsage: "FILE|PATTERN...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Base URL of the upload API (falls back to API_GATEWAY_URL)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Bearer token for the upload API (falls back to AUTH_TOKEN)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID recorded in the object key (falls back to UPLOAD_USER_ID)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress bars",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Errorf("%s", err)
		os.Exit(1)
	}
}

func run(c *cli.Context, logger log.Logger) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no files given, expected at least one file or glob pattern")
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	paths, err := uploadclient.ExpandPatterns(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched the given patterns")
	}

	uploader := uploadclient.NewUploader(cfg.APIBaseURL, cfg.AuthToken, cfg.UserID, c.Bool("quiet"), logger)
	defer uploader.Wait()

	var totalBytes int64
	for _, path := range paths {
		result, err := uploader.Upload(path)
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		totalBytes += result.Size
	}

	logger.Donef("Uploaded %d file(s), %s total", len(paths), units.HumanSize(float64(totalBytes)))
	return nil
}

// resolveConfig merges command-line flags over the environment-derived
// configuration; flags win.
func resolveConfig(c *cli.Context) (config.UploadClient, error) {
	cfg := config.UploadClient{
		APIBaseURL: c.String("api-url"),
		AuthToken:  c.String("token"),
		UserID:     c.String("user"),
	}

	if cfg.APIBaseURL == "" || cfg.AuthToken == "" || cfg.UserID == "" {
		envCfg, err := config.LoadUploadClient(env.NewRepository())
		if err != nil && cfg.APIBaseURL == "" {
			return config.UploadClient{}, err
		}
		if cfg.APIBaseURL == "" {
			cfg.APIBaseURL = envCfg.APIBaseURL
		}
		if cfg.AuthToken == "" {
			cfg.AuthToken = envCfg.AuthToken
		}
		if cfg.UserID == "" {
			cfg.UserID = envCfg.UserID
		}
	}

	if cfg.UserID == "" {
		cfg.UserID = "anonymous"
	}
	return cfg, nil
}
