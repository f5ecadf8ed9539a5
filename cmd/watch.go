package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clearoute/internal/api/client"
	app "clearoute/internal/application"
	"clearoute/internal/container"
	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
	"clearoute/internal/infrastructure/vision"
	"clearoute/internal/logger"
)

type watchOptions struct {
	video  string
	frames string
	source string
	remote bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Живая сессия: анализ видео CCTV или каталога кадров",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.video, "video", "", "видеофайл (нужна сборка с тегом gocv)")
	cmd.Flags().StringVar(&opts.frames, "frames", "", "каталог с кадрами .jpg/.png")
	cmd.Flags().StringVar(&opts.source, "source", "", "метка источника в журнале (по умолчанию CCTV: <имя файла>)")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "отправлять кадры в HTTP API по SERVER_URL")
	cmd.MarkFlagsMutuallyExclusive("video", "frames")
	cmd.MarkFlagsOneRequired("video", "frames")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer logger.Flush(log)

	var (
		frames port.FrameSource
		path   string
	)
	if opts.video != "" {
		path = opts.video
		src, err := vision.NewVideoFrameSource(opts.video, cfg.FrameStride)
		if err != nil {
			return fmt.Errorf("open video: %w", err)
		}
		frames = src
	} else {
		path = opts.frames
		src, err := vision.NewDirFrameSource(opts.frames)
		if err != nil {
			return fmt.Errorf("open frames: %w", err)
		}
		frames = src
	}
	defer frames.Close()

	source := opts.source
	if source == "" {
		source = vision.CCTVSourceName(path)
	}

	var analyzer app.Analyzer
	if opts.remote {
		analyzer = client.New(cfg.ServerURL, cfg.ClientTimeout())
	} else {
		c, err := container.New(cfg, log)
		if err != nil {
			return err
		}
		defer c.Close()
		analyzer = c.InspectionService
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()
	good := color.New(color.FgGreen).SprintFunc()

	watcher := app.NewSurveillanceService(analyzer, log.Named("watch"))
	summary, err := watcher.Watch(ctx, source, frames, func(u app.FrameUpdate) {
		status := good(u.Quality)
		if u.Quality == entity.QualityBad {
			status = bad(u.Quality)
		}
		line := fmt.Sprintf("frame %4d  visible %2d  %s  unique %d", u.Frame, u.Count, status, u.UniqueTotal)
		if !u.Recorded {
			line += "  (not recorded)"
		}
		fmt.Fprintln(out, line)
	})
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}

	log.Info("session finished",
		zap.String("source", summary.Source),
		zap.Int("frames", summary.Frames),
		zap.Int("skipped", summary.Skipped),
		zap.Int("unique_defects", summary.UniqueDefects),
	)
	fmt.Fprintf(out, "\n%s: %d frames analyzed, %d skipped, %d unrecorded, unique defects %d\n",
		summary.Source, summary.Analyzed, summary.Skipped, summary.Unrecorded, summary.UniqueDefects)
	return nil
}
