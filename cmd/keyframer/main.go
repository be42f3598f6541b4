package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/keyframer"
	"github.com/bft-labs/keyframer/internal/api"
	"github.com/bft-labs/keyframer/internal/app"
	"github.com/bft-labs/keyframer/internal/cliconfig"
	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/pkg/log"
)

const helpDescription = `
Extract visually distinct keyframes from videos with perceptual hashes, and
find out which stored video an image or hash came from.

Hash methods:
  average  64-bit average hash (Hamming distance)
  phash    64-bit DCT perceptual hash (Hamming distance)
  dhash    64-bit difference hash (Hamming distance)
  color    18 color moments over RGB and YCbCr (Euclidean distance)

Configuration is read from $HOME/.keyframer/config.toml, then KEYFRAMER_*
environment variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  keyframer process --source holiday.mp4 --destination keyframes --method phash --distance 10
  keyframer locate --destination keyframes --method phash --distance 6 --hash c3e1f0f0e0c08080
  keyframer locate --destination keyframes --image still.png --method color --distance 5
  keyframer watch --source incoming --destination keyframes
  keyframer serve --destination keyframes --listen :8080
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  *log.ZerologAdapter
}

// load applies file, environment and flag configuration, then builds the logger.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	// Environment overrides file config; flags override both
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	logger, err := log.NewConsoleLogger(os.Stderr, c.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	c.logger = logger.With("run_id", uuid.New().String())
	c.logger.Debug("configuration", log.Any("config", c.cfg))
	return nil
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "keyframer",
		Short:         "Perceptual-hash keyframe extraction and lookup",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.keyframer/config.toml)")
	pf.StringVar(&c.cfg.Destination, "destination", c.cfg.Destination, "keyframe store directory")
	pf.StringVar(&c.cfg.Method, "method", c.cfg.Method, "hash method: average, phash, dhash or color")
	pf.Float64Var(&c.cfg.Distance, "distance", c.cfg.Distance, "distance threshold")
	pf.IntVar(&c.cfg.CroppingPercent, "cropping", c.cfg.CroppingPercent, "vertical cropping percentage in [0, 50); other values use 33")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level: debug, info, warn or error")
	pf.StringVar(&c.cfg.FFmpegPath, "ffmpeg", c.cfg.FFmpegPath, "ffmpeg binary")
	pf.StringVar(&c.cfg.FFprobePath, "ffprobe", c.cfg.FFprobePath, "ffprobe binary")

	root.AddCommand(
		c.processCommand(),
		c.locateCommand(),
		c.hashCommand(),
		c.watchCommand(),
		c.catalogCommand(),
		c.serveCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		if c.logger != nil {
			c.logger.Error("keyframer", log.Err(err))
		} else {
			fmt.Fprintf(os.Stderr, "keyframer: %v\n", err)
		}
		os.Exit(1)
	}
}

func (c *cli) processFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.cfg.Source, "source", c.cfg.Source, "video file or directory of frame images")
	fs.StringVar(&c.cfg.ImagesDir, "images-dir", c.cfg.ImagesDir, "directory for keyframe images (default: destination)")
	fs.BoolVar(&c.cfg.SaveImages, "save-images", c.cfg.SaveImages, "write each keyframe as <hash>.jpg")
	fs.BoolVar(&c.cfg.Check, "check", c.cfg.Check, "report how many frames the keyframes cover")
	fs.BoolVar(&c.cfg.FlushTrailing, "flush-trailing", c.cfg.FlushTrailing, "also emit the final anchor frame")
}

func (c *cli) processCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [source]",
		Short: "Extract keyframes from a video into the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				c.cfg.Source = args[0]
			}
			res, err := keyframer.Process(cmd.Context(), c.cfg, keyframer.WithLogger(c.logger))
			if err != nil {
				return err
			}
			for _, k := range res.Keyframes {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", k.Index, k.Hash)
			}
			return nil
		},
	}
	c.processFlags(cmd.Flags())
	return cmd
}

func (c *cli) queryFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.cfg.Hash, "hash", c.cfg.Hash, "query hash")
	fs.StringVar(&c.cfg.Image, "image", c.cfg.Image, "query image, hashed with --method and --cropping")
	fs.StringVar(&c.cfg.QueryRecord, "query-record", c.cfg.QueryRecord, "store document holding the query keyframe")
	fs.IntVar(&c.cfg.QueryIndex, "query-index", c.cfg.QueryIndex, "frame index of the keyframe in --query-record")
	fs.BoolVar(&c.cfg.Recursive, "recursive", c.cfg.Recursive, "scan store subdirectories")
	fs.IntVar(&c.cfg.Workers, "workers", c.cfg.Workers, "store files read concurrently")
	fs.StringVar(&c.cfg.Catalog, "catalog", c.cfg.Catalog, "search a SQLite catalog instead of store files")
}

func (c *cli) locateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Find stored videos with a keyframe near a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := keyframer.Locate(cmd.Context(), c.cfg, keyframer.WithLogger(c.logger))
			if err != nil {
				return err
			}
			c.logger.Info("locate finished",
				log.Int("scanned", report.Scanned),
				log.Int("skipped", report.Skipped),
				log.Int("hits", len(report.Hits)),
			)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	c.queryFlags(cmd.Flags())
	return cmd
}

func (c *cli) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <image>...",
		Short: "Print the hash of each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				h, err := keyframer.HashImageFile(c.cfg, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", h, path)
			}
			return nil
		},
	}
}

func (c *cli) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Process videos as they are written to a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				c.cfg.Source = args[0]
			}
			if c.cfg.Source == "" {
				return fmt.Errorf("%w: a directory to watch is required", domain.ErrInvalidConfig)
			}
			w := app.NewWatcher(app.WatcherConfig{
				Dir:      c.cfg.Source,
				Debounce: c.cfg.Debounce,
				Process:  keyframer.ProcessSettings(c.cfg),
			}, keyframer.NewProcessor(c.cfg, c.logger), c.logger)
			return w.Run(cmd.Context())
		},
	}
	c.processFlags(cmd.Flags())
	cmd.Flags().DurationVar(&c.cfg.Debounce, "debounce", c.cfg.Debounce, "quiet period before a written file is processed")
	return cmd
}

func (c *cli) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Import store documents into a SQLite catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Catalog == "" {
				c.cfg.Catalog = filepath.Join(c.cfg.Destination, "catalog.db")
			}
			res, err := keyframer.ImportCatalog(cmd.Context(), c.cfg, keyframer.WithLogger(c.logger))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d keyframes, %d skipped (catalog holds %d keyframes in %d files)\n",
				c.cfg.Catalog, res.Files, res.Records, res.Skipped, res.CatalogRows, res.CatalogFiles)
			return nil
		},
	}
	cmd.Flags().StringVar(&c.cfg.Catalog, "catalog", c.cfg.Catalog, "catalog database (default: <destination>/catalog.db)")
	cmd.Flags().BoolVar(&c.cfg.Recursive, "recursive", c.cfg.Recursive, "import store subdirectories")
	return cmd
}

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve locate queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handlers := api.NewHandlers(keyframer.NewLocateService(c.logger), api.Defaults{
				KeyframesPath:   c.cfg.Destination,
				Recursive:       c.cfg.Recursive,
				Workers:         c.cfg.Workers,
				Method:          c.cfg.HashMethod(),
				Distance:        c.cfg.Distance,
				CroppingPercent: c.cfg.CroppingPercent,
			}, c.logger)
			return api.NewServer(c.cfg.Listen, api.NewRouter(handlers), c.logger).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&c.cfg.Listen, "listen", c.cfg.Listen, "address to listen on")
	cmd.Flags().BoolVar(&c.cfg.Recursive, "recursive", c.cfg.Recursive, "scan store subdirectories")
	cmd.Flags().IntVar(&c.cfg.Workers, "workers", c.cfg.Workers, "store files read concurrently")
	return cmd
}
