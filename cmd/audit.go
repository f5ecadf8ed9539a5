package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clearoute/internal/container"
	"clearoute/internal/infrastructure/report"
	"clearoute/internal/logger"
)

func newReportCommand() *cobra.Command {
	var source, out, chart string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Сформировать PDF-отчёт (и HTML-график) по источнику",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Flush(log)

			c, err := container.NewStorage(cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			rep, err := c.AuditService.Report(cmd.Context(), source)
			if err != nil {
				return err
			}

			if out == "" {
				out = report.FileName(source)
			}
			var buf bytes.Buffer
			if err := report.PDF(&buf, rep); err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames, unique defects %d -> %s\n", rep.Source, rep.Frames, rep.UniqueDefects, out)

			if chart != "" {
				if err := report.SaveTimeline(chart, rep); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "timeline -> %s\n", chart)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "источник (метка в журнале)")
	cmd.Flags().StringVar(&out, "out", "", "файл PDF (по умолчанию Report_<source>.pdf)")
	cmd.Flags().StringVar(&chart, "chart", "", "дополнительно сохранить HTML-график в файл")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Показать журнал аудита и сводку по источникам",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Flush(log)

			c, err := container.NewStorage(cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			reports, err := c.AuditService.Reports(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := c.AuditService.History(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(reports) > 0 {
				if err := report.Summary(w, reports); err != nil {
					return err
				}
				fmt.Fprintln(w)
			}
			return report.Table(w, rows, time.Now(), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "сколько последних записей показать (0 = все)")
	return cmd
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Удалить все записи журнала аудита",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Flush(log)

			c, err := container.NewStorage(cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.AuditService.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History Deleted")
			return nil
		},
	}
}
