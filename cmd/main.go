package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clearoute/config"
	"clearoute/internal/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clearoute",
		Short: "CleaRoute: мониторинг выбоин на дорогах",
		Long: `CleaRoute анализирует снимки и видео дорог, ведёт журнал аудита
и строит отчёты по уникальным выбоинам.

Команды:
  serve      HTTP API и Telegram-бот
  watch      живая сессия по видео или каталогу кадров
  dashboard  терминальная панель аудита
  report     PDF-отчёт и график по источнику
  history    журнал аудита в виде таблицы
  clear      очистить журнал аудита`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newWatchCommand(),
		newDashboardCommand(),
		newReportCommand(),
		newHistoryCommand(),
		newClearCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup загружает конфигурацию и создаёт логгер.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, log, nil
}
