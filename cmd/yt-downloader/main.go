package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ytget/dlcore/internal/cache"
	"github.com/ytget/dlcore/internal/command"
	"github.com/ytget/dlcore/internal/download"
	"github.com/ytget/dlcore/internal/eventbus"
	"github.com/ytget/dlcore/internal/executable"
	"github.com/ytget/dlcore/internal/model"
	"github.com/ytget/dlcore/internal/platform"
	"github.com/ytget/dlcore/internal/storage"
)

// version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

// app bundles everything a subcommand needs once the dependency graph is
// wired: the facade for command handling and the manager/bus for lifecycle
// and event draining.
type app struct {
	facade  *command.Facade
	manager *download.Manager
	bus     *eventbus.Bus
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cliApp := &cli.App{
		Name:    "yt-downloader",
		Usage:   "download core for the desktop video downloader",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "directory for settings/queue/history documents"},
			&cli.StringFlag{Name: "resource-root", Usage: "directory containing the bundled bin/ tree"},
		},
		Commands: []*cli.Command{
			addCommand(),
			pauseCommand(),
			resumeCommand(),
			cancelCommand(),
			reorderCommand(),
			infoCommand(),
			settingsCommand(),
			testDownloadCommand(),
			checkDepsCommand(),
			installDepCommand(),
			watchCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		printErr(err)
		os.Exit(1)
	}
}

// printErr renders a command error as the stable {type, message,
// suggested_action} envelope the UI host also receives.
func printErr(err error) {
	envelope, ok := command.Envelope(err)
	if !ok {
		return
	}
	data, marshalErr := json.MarshalIndent(envelope, "", "  ")
	if marshalErr != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(os.Stderr, string(data))
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "dlcore")
}

func resourceRootFlag(c *cli.Context) string {
	if root := c.String("resource-root"); root != "" {
		return root
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func dataDirFlag(c *cli.Context) string {
	if dir := c.String("data-dir"); dir != "" {
		return dir
	}
	return defaultDataDir()
}

// withApp wires the dependency graph, starts the manager's supervisor
// loop, runs f, then lets the loop drain on context cancellation before
// returning.
func withApp(c *cli.Context, f func(ctx context.Context, a *app) error) error {
	dataDir := dataDirFlag(c)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	storageSvc := storage.New(dataDir)
	registry := platform.NewRegistry()

	arch := executable.DetectArchitecture()
	locator := executable.New(resourceRootFlag(c), arch)
	if paths, err := locator.Locate(); err != nil {
		logrus.WithError(err).Warn("bundled executables not verified; YouTube downloads will fail until resolved")
	} else {
		registry.Register(platform.NewYouTubeProvider(paths.Downloader, paths.MuxTool))
	}

	bus := eventbus.New()
	manager := download.New(registry, storageSvc, bus)
	metaCache := cache.WithDefaultTTL()
	facade := command.New(registry, manager, storageSvc, metaCache, locator, bus)

	settings, err := storageSvc.LoadSettings()
	if err != nil {
		return err
	}
	manager.Configure(settings)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := manager.Start(ctx); err != nil {
		return err
	}

	a := &app{facade: facade, manager: manager, bus: bus}
	if err := f(ctx, a); err != nil {
		return err
	}

	cancel()
	manager.Wait()
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "resolve a URL's metadata and enqueue it for download",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true},
			&cli.StringFlag{Name: "save-path", Required: true},
			&cli.StringFlag{Name: "quality", Value: string(model.QualityBest)},
			&cli.StringFlag{Name: "format", Value: string(model.ContainerMP4)},
			&cli.BoolFlag{Name: "audio-only"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				url := c.String("url")
				record, err := a.facade.GetVideoInfo(ctx, url)
				if err != nil {
					return err
				}
				platformName, err := a.facade.DetectPlatform(url)
				if err != nil {
					return err
				}
				item := model.DownloadItem{
					VideoID:   record.ID,
					Title:     record.Title,
					Thumbnail: record.Thumbnail,
					SavePath:  c.String("save-path"),
					URL:       url,
					Platform:  platformName,
					Options: model.DownloadOptions{
						Quality:   model.Quality(c.String("quality")),
						Format:    model.Container(c.String("format")),
						AudioOnly: c.Bool("audio-only"),
					},
				}
				enqueued, err := a.facade.AddToDownloadQueue([]model.DownloadItem{item})
				if err != nil {
					return err
				}
				return printJSON(enqueued[0])
			})
		},
	}
}

func pauseCommand() *cli.Command {
	return &cli.Command{
		Name:      "pause",
		Usage:     "pause a queued or downloading item",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			return withApp(c, func(ctx context.Context, a *app) error {
				return a.facade.PauseDownload(id)
			})
		},
	}
}

func resumeCommand() *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "resume a paused item",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			return withApp(c, func(ctx context.Context, a *app) error {
				return a.facade.ResumeDownload(id)
			})
		},
	}
}

func cancelCommand() *cli.Command {
	return &cli.Command{
		Name:      "cancel",
		Usage:     "cancel an item and remove it from the active set",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			return withApp(c, func(ctx context.Context, a *app) error {
				return a.facade.CancelDownload(id)
			})
		},
	}
}

func reorderCommand() *cli.Command {
	return &cli.Command{
		Name:      "reorder",
		Usage:     "move a queue item from one index to another",
		ArgsUsage: "<from-index> <to-index>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("expected exactly two arguments: <from-index> <to-index>", 1)
			}
			from, err := strconv.Atoi(c.Args().Get(0))
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid from-index: %v", err), 1)
			}
			to, err := strconv.Atoi(c.Args().Get(1))
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid to-index: %v", err), 1)
			}
			return withApp(c, func(ctx context.Context, a *app) error {
				return a.facade.ReorderQueue(from, to)
			})
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "resolve metadata for a video, playlist, or channel URL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true},
			&cli.StringFlag{Name: "kind", Value: "video", Usage: "one of: video, playlist, channel"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				url := c.String("url")
				switch c.String("kind") {
				case "playlist":
					record, err := a.facade.GetPlaylistInfo(ctx, url)
					if err != nil {
						return err
					}
					return printJSON(record)
				case "channel":
					record, err := a.facade.GetChannelInfo(ctx, url)
					if err != nil {
						return err
					}
					return printJSON(record)
				default:
					record, err := a.facade.GetVideoInfo(ctx, url)
					if err != nil {
						return err
					}
					return printJSON(record)
				}
			})
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "inspect or update the persisted settings document",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "print the current settings document",
				Action: func(c *cli.Context) error {
					return withApp(c, func(ctx context.Context, a *app) error {
						settings, err := a.facade.GetSettings()
						if err != nil {
							return err
						}
						return printJSON(settings)
					})
				},
			},
			{
				Name:  "set",
				Usage: "update and persist settings, reapplying them to the running scheduler",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-concurrent-downloads"},
					&cli.BoolFlag{Name: "auto-retry-on-failure"},
					&cli.IntFlag{Name: "max-retry-attempts"},
					&cli.StringFlag{Name: "default-save-path"},
				},
				Action: func(c *cli.Context) error {
					return withApp(c, func(ctx context.Context, a *app) error {
						settings, err := a.facade.GetSettings()
						if err != nil {
							return err
						}
						if c.IsSet("max-concurrent-downloads") {
							settings.MaxConcurrentDownloads = c.Int("max-concurrent-downloads")
						}
						if c.IsSet("auto-retry-on-failure") {
							settings.AutoRetryOnFailure = c.Bool("auto-retry-on-failure")
						}
						if c.IsSet("max-retry-attempts") {
							settings.MaxRetryAttempts = c.Int("max-retry-attempts")
						}
						if c.IsSet("default-save-path") {
							settings.DefaultSavePath = c.String("default-save-path")
						}
						if err := a.facade.SaveSettings(settings); err != nil {
							return err
						}
						return printJSON(settings)
					})
				},
			},
		},
	}
}

func testDownloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "test-download",
		Usage:     "verify a provider end to end by resolving a video's title",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			url := c.Args().First()
			return withApp(c, func(ctx context.Context, a *app) error {
				title, err := a.facade.TestDownload(ctx, url)
				if err != nil {
					return err
				}
				fmt.Println(title)
				return nil
			})
		},
	}
}

func checkDepsCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-deps",
		Usage: "verify external dependencies for one platform, or every registered platform",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Usage: "limit the check to a single registered platform name"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				deps, err := a.facade.CheckDependencies(ctx, c.String("platform"))
				if err != nil {
					return err
				}
				return printJSON(deps)
			})
		},
	}
}

func installDepCommand() *cli.Command {
	return &cli.Command{
		Name:      "install-dep",
		Usage:     "install a missing dependency via Homebrew when no bundled executable is available",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			return withApp(c, func(ctx context.Context, a *app) error {
				return a.facade.InstallMissingDependency(ctx, name)
			})
		},
	}
}

// watchCommand prints every event published on the bus until interrupted;
// useful for observing a queue driven by other invocations of this binary
// against the same data directory.
func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "stream progress, status, error, and queue-update events until interrupted",
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				sub := a.bus.Subscribe()
				defer sub.Unsubscribe()
				for {
					select {
					case <-ctx.Done():
						return nil
					case ev := <-sub.Events():
						data, err := json.Marshal(struct {
							Kind    eventbus.Kind `json:"kind"`
							Payload interface{}   `json:"payload"`
						}{Kind: ev.Kind, Payload: ev.Payload})
						if err != nil {
							continue
						}
						fmt.Println(string(data))
					}
				}
			})
		},
	}
}
