package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oziev02/ResponsiveImages/internal/app"
	"github.com/oziev02/ResponsiveImages/internal/config"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/spf13/cobra"
)

type runFlags struct {
	name       string
	directory  string
	output     string
	sizes      string
	codec      string
	quality    int
	skipUpload bool
	skipResize bool
	force      bool
	clobber    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   "responsive-images <image-location>",
		Short: "Generate responsive image variants and their data records",
		Long: "Resizes an image, or every image in a directory, to a set of widths, uploads the\n" +
			"variants and writes the records needed to render a responsive picture element.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, configPath, flags, args[0])
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	bindRunFlags(root, flags)

	root.AddCommand(
		newProcessCmd(&configPath),
		newEnqueueCmd(&configPath),
		newWorkerCmd(&configPath),
		newServeCmd(&configPath),
	)
	return root
}

func newProcessCmd(configPath *string) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "process <image-location>",
		Short: "Process images in-process (the default command)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, *configPath, flags, args[0])
		},
	}
	bindRunFlags(cmd, flags)
	return cmd
}

func newEnqueueCmd(configPath *string) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "enqueue <image-location>",
		Short: "Queue a processing job for a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, opts, err := setup(ctx, cmd, *configPath, flags, args[0])
			if err != nil {
				return err
			}
			defer application.Close()

			id, err := application.Enqueue(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	bindRunFlags(cmd, flags)
	return cmd
}

func newWorkerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume queued jobs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, err := newApp(ctx, *configPath, "")
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Work(ctx)
		},
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the records over HTTP and accept jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, err := newApp(ctx, *configPath, "")
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(ctx)
		},
	}
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.name, "name", "n", "", "logical name of the image set (required)")
	fs.StringVarP(&f.directory, "directory", "d", "", "sub directory under the dated storage prefix")
	fs.StringVarP(&f.output, "output", "o", "", "data file to write records to (default ./data/images.json)")
	fs.StringVar(&f.sizes, "sizes", "", "comma separated candidate widths, e.g. 320,480,640")
	fs.StringVar(&f.codec, "codec", "", "output codec: webp, jpeg or png")
	fs.IntVar(&f.quality, "quality", 0, "encoder quality, 1-100")
	fs.BoolVar(&f.skipUpload, "skip-upload", false, "compute storage locations without uploading")
	fs.BoolVar(&f.skipResize, "skip-resize", false, "plan variants without writing files")
	fs.BoolVarP(&f.force, "force", "f", false, "overwrite existing data keys")
	fs.BoolVar(&f.clobber, "clobber", false, "alias for --force")
	_ = fs.MarkHidden("clobber")
	_ = cmd.MarkFlagRequired("name")
}

func runProcess(cmd *cobra.Command, configPath string, flags *runFlags, input string) error {
	ctx, stop := signalContext()
	defer stop()

	application, opts, err := setup(ctx, cmd, configPath, flags, input)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Process(ctx, opts)
	if err != nil {
		application.Logger().Error("run failed", "error", err)
		return err
	}

	printSummary(cmd.OutOrStdout(), result.Records)
	return nil
}

func setup(ctx context.Context, cmd *cobra.Command, configPath string, flags *runFlags, input string) (*app.App, domain.RunOptions, error) {
	application, err := newApp(ctx, configPath, flags.output)
	if err != nil {
		return nil, domain.RunOptions{}, err
	}

	opts, err := flags.options(cmd, application.DefaultOptions(), input)
	if err != nil {
		application.Close()
		return nil, domain.RunOptions{}, err
	}
	return application, opts, nil
}

func newApp(ctx context.Context, configPath, output string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, domain.Wrap(domain.KindConfig, "load config", configPath, err)
	}
	if output != "" {
		cfg.Metadata.Output = output
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	return application, nil
}

// options overlays the flags the user set on the configured defaults.
func (f *runFlags) options(cmd *cobra.Command, defaults domain.RunOptions, input string) (domain.RunOptions, error) {
	opts := defaults
	opts.InputPath = input
	opts.Name = f.name
	opts.Directory = f.directory
	opts.SkipUpload = f.skipUpload
	opts.SkipResize = f.skipResize
	opts.Force = f.force || f.clobber

	if cmd.Flags().Changed("sizes") {
		sizes, err := config.ParseSizes(f.sizes)
		if err != nil {
			return opts, domain.Wrap(domain.KindConfig, "parse sizes", "", err)
		}
		opts.Sizes = sizes
	}
	if cmd.Flags().Changed("codec") {
		opts.Codec = f.codec
	}
	if cmd.Flags().Changed("quality") {
		opts.Quality = f.quality
	}

	return opts, opts.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
