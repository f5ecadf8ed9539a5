package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
	"clearoute/internal/infrastructure/report"
)

const clearScreen = "\x1b[H\x1b[2J"

// HistorySource откуда панель берёт журнал: локальный AuditService или HTTP-клиент.
type HistorySource interface {
	History(ctx context.Context) ([]entity.Observation, error)
}

// Dashboard терминальная панель аудита. Каждый цикл заново читает журнал
// и перерисовывает экран целиком, поэтому повторная отрисовка безопасна.
type Dashboard struct {
	source   HistorySource
	out      io.Writer
	interval time.Duration
	log      *zap.Logger

	RecentRows  int  // сколько последних записей показывать
	ClearScreen bool // стирать экран перед кадром
	now         func() time.Time
}

func New(source HistorySource, out io.Writer, interval time.Duration, log *zap.Logger) *Dashboard {
	return &Dashboard{
		source:      source,
		out:         out,
		interval:    interval,
		log:         log,
		RecentRows:  15,
		ClearScreen: true,
		now:         time.Now,
	}
}

// Render читает журнал и рисует один кадр панели.
func (d *Dashboard) Render(ctx context.Context) error {
	now := d.now()
	var buf bytes.Buffer
	if d.ClearScreen {
		buf.WriteString(clearScreen)
	}
	fmt.Fprintf(&buf, "CleaRoute: Audit History (%s)\n\n", now.Format(report.TimeLayout))

	history, err := d.source.History(ctx)
	if err != nil {
		buf.WriteString("Ensure backend is running: " + err.Error() + "\n")
		if _, werr := d.out.Write(buf.Bytes()); werr != nil {
			return werr
		}
		return err
	}

	sources := entity.Sources(history)
	reports := make([]*entity.SourceReport, 0, len(sources))
	for _, src := range sources {
		reports = append(reports, entity.NewSourceReport(src, history, now))
	}

	if err := report.Summary(&buf, reports); err != nil {
		return err
	}
	buf.WriteString("\n")
	if err := report.Table(&buf, history, now, d.RecentRows); err != nil {
		return err
	}

	_, err = d.out.Write(buf.Bytes())
	return err
}

// Run перерисовывает панель каждые interval до отмены ctx.
// Ошибки чтения журнала не останавливают цикл.
func (d *Dashboard) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.Render(ctx); err != nil && ctx.Err() == nil {
			d.log.Warn("dashboard refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
