package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-heat/internal/api"
	"github.com/joeblew999/plat-heat/internal/config"
	"github.com/joeblew999/plat-heat/internal/heatmap"
	"github.com/joeblew999/plat-heat/internal/server"
)

// Options defines all CLI flags and env vars for the heatmap server.
// Flags: --host, --port, --data-dir, --web-dir, --config, --no-db
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_WEB_DIR, SERVICE_CONFIG, SERVICE_NO_DB
type Options struct {
	Host    string `doc:"Host to bind to" default:"0.0.0.0"`
	Port    int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir string `doc:"Directory for layers and GeoJSON sources" default:".data"`
	WebDir  string `doc:"Path to web/ directory (optional)" default:""`
	Config  string `doc:"Path to config file (default ./config.yaml)" default:""`
	NoDB    bool   `doc:"Disable DuckDB" default:"false"`
}

func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newServer(opts *Options) (*server.Server, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    strconv.Itoa(opts.Port),
		DataDir: opts.DataDir,
		WebDir:  opts.WebDir,
		NoDB:    opts.NoDB,
		App:     cfg,
	})
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server

		hooks.OnStart(func() {
			var err error
			srv, err = newServer(opts)
			if err != nil {
				fatal("Startup error", err)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			zap.L().Info("plat-heat API server starting",
				zap.String("server", baseURL),
				zap.String("data", opts.DataDir),
				zap.String("docs", baseURL+"/docs"),
				zap.String("openapi", baseURL+"/openapi.json"),
			)

			if err := http.ListenAndServe(addr, srv); err != nil {
				zap.L().Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if srv != nil {
				srv.Close()
			}
			zap.L().Sync()
		})
	})

	cli.Root().Use = "heatmap"
	cli.Root().Short = "Heatmap style sets for GeoJSON map layers"
	cli.Root().Version = api.Version

	cli.Root().AddCommand(specCommand(), generateCommand())
	cli.Run()
}

// specCommand exports the OpenAPI spec (JSON by default, --yaml for YAML).
func specCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.NoDB = true
			srv, err := newServer(opts)
			if err != nil {
				fatal("Error creating server", err)
			}
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			out, err := marshal(srv.OpenAPI(), useYAML)
			if err != nil {
				fatal("Error marshaling spec", err)
			}
			fmt.Println(string(out))
		}),
	}
	cmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	return cmd
}

// generateCommand prints a style set built from flags or a config preset.
func generateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a heatmap style set",
		Example: `  heatmap generate --property density --thresholds 50,100,150 --color "#ff6600"
  heatmap generate --preset density --yaml`,
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal("Error loading config", err)
			}

			genOpts, err := generateOptions(cmd, cfg)
			if err != nil {
				fatal("Invalid options", err)
			}
			ss, err := heatmap.GenerateOptions(genOpts)
			if err != nil {
				fatal("Error generating style set", err)
			}

			useYAML, _ := cmd.Flags().GetBool("yaml")
			out, err := marshal(ss, useYAML)
			if err != nil {
				fatal("Error marshaling style set", err)
			}
			fmt.Println(string(out))
		}),
	}
	cmd.Flags().String("preset", "", "Start from a named config preset")
	cmd.Flags().String("property", "", "Numeric feature property")
	cmd.Flags().String("thresholds", "", "Comma-separated, strictly ascending thresholds")
	cmd.Flags().String("color", "", "Base color (#rrggbb or #rgb)")
	cmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	return cmd
}

// generateOptions starts from the preset when one is named, or when no
// explicit flags are given, then applies explicit flags on top.
func generateOptions(cmd *cobra.Command, cfg *config.Config) (heatmap.Options, error) {
	var opts heatmap.Options

	preset, _ := cmd.Flags().GetString("preset")
	explicit := cmd.Flags().Changed("property") || cmd.Flags().Changed("thresholds") || cmd.Flags().Changed("color")
	if preset != "" || !explicit {
		p, ok := cfg.Preset(preset)
		if !ok {
			return opts, eris.Errorf("unknown preset %q", preset)
		}
		opts = p
	}

	if cmd.Flags().Changed("property") {
		opts.Property, _ = cmd.Flags().GetString("property")
	}
	if cmd.Flags().Changed("color") {
		opts.Color, _ = cmd.Flags().GetString("color")
	}
	if cmd.Flags().Changed("thresholds") {
		raw, _ := cmd.Flags().GetString("thresholds")
		thresholds, err := parseThresholds(raw)
		if err != nil {
			return opts, err
		}
		opts.Thresholds = thresholds
	}
	return opts, nil
}

func parseThresholds(raw string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "threshold %q", part)
		}
		out = append(out, f)
	}
	return out, nil
}

func marshal(v any, useYAML bool) ([]byte, error) {
	if useYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
