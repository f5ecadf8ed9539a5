package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "clearoute/internal/application"
	"clearoute/internal/domain/entity"
	"clearoute/internal/infrastructure/report"
)

const (
	msgStart = `👋 Привет! Я бот мониторинга дорожного покрытия.

📸 Отправьте фото дороги, и я найду выбоины и верну снимок с разметкой.

📋 Команды:
/check — начать новую сессию проверки
/history — последние записи сессии
/report — PDF-отчёт по сессии
/clear — очистить журнал аудита
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /check, чтобы начать сессию
2️⃣ Присылайте фото участков дороги по порядку
3️⃣ На каждое фото придёт разметка, число выбоин и счётчик уникальных выбоин за сессию

💡 Счётчик растёт, только когда выбоин на кадре становится больше, чем на предыдущем.`

	msgAwaitingPhoto   = "📸 Сессия начата. Отправляйте фото дороги."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото дороги."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgStoreError      = "⚠️ Журнал аудита недоступен. Попробуйте позже."
	msgNoData          = "Записей пока нет. Отправьте фото дороги."
	msgHistoryDeleted  = "🗑️ Журнал аудита очищен."

	historyRows = 10
)

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	users      *app.UserService
	inspection app.Analyzer
	audit      *app.AuditService
	log        *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, inspection app.Analyzer, audit *app.AuditService, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:        api,
		users:      users,
		inspection: inspection,
		audit:      audit,
		log:        log,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("get user", zap.Error(err))
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		_, _ = b.users.SetState(ctx, user.ID, user.ChatID, entity.StateMainMenu)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		if _, err := b.users.BeginCheck(ctx, user.ID, user.ChatID, sourceFor(msg.From)); err != nil {
			b.log.Error("begin check", zap.Error(err))
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		_, _ = b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	case "history":
		b.sendHistory(ctx, msg.Chat.ID, sessionSource(user, msg.From))

	case "report":
		b.sendReport(ctx, msg.Chat.ID, sessionSource(user, msg.From))

	case "clear":
		if err := b.audit.Clear(ctx); err != nil {
			b.log.Error("clear history", zap.Error(err))
			b.sendMessage(msg.Chat.ID, msgStoreError)
			return
		}
		b.sendMessage(msg.Chat.ID, msgHistoryDeleted)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto анализирует фото и продолжает сессию пользователя
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if user.Source == "" {
		user.StartSession(sourceFor(msg.From))
	}
	user.SetState(entity.StateProcessing)
	_ = b.users.Save(ctx, user)

	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.Error("download photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		_, _ = b.users.SetState(ctx, user.ID, user.ChatID, entity.StateAwaitingPhoto)
		return
	}

	out, err := b.inspection.Analyze(ctx, user.Source, imageData)
	if err != nil {
		b.log.Warn("analyze photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		_, _ = b.users.SetState(ctx, user.ID, user.ChatID, entity.StateAwaitingPhoto)
		return
	}

	total, err := b.users.ObserveFrame(ctx, user, out.Count())
	if err != nil {
		b.log.Error("save session", zap.Error(err))
	}

	caption := formatCaption(out, total)
	annotated := imageData
	if out.Result != nil && len(out.Result.Annotated) > 0 {
		annotated = out.Result.Annotated
	}

	reply := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: "result.jpg", Bytes: annotated})
	reply.Caption = caption
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send photo", zap.Error(err))
	}
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64, source string) {
	rep, err := b.audit.Report(ctx, source)
	if err != nil {
		b.log.Error("read history", zap.Error(err))
		b.sendMessage(chatID, msgStoreError)
		return
	}
	b.sendMessage(chatID, formatHistory(rep, historyRows))
}

func (b *Bot) sendReport(ctx context.Context, chatID int64, source string) {
	rep, err := b.audit.Report(ctx, source)
	if err != nil {
		b.log.Error("build report", zap.Error(err))
		b.sendMessage(chatID, msgStoreError)
		return
	}
	if rep.Frames == 0 {
		b.sendMessage(chatID, msgNoData)
		return
	}

	var buf bytes.Buffer
	if err := report.PDF(&buf, rep); err != nil {
		b.log.Error("render report", zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: report.FileName(rep.Source), Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("Уникальных выбоин: %d, кадров: %d", rep.UniqueDefects, rep.Frames)
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send report", zap.Error(err))
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", zap.Error(err))
	}
}

// sourceFor метка источника в журнале для пользователя Telegram.
func sourceFor(from *tgbotapi.User) string {
	if from == nil {
		return "Telegram"
	}
	if from.UserName != "" {
		return "Telegram: @" + from.UserName
	}
	return fmt.Sprintf("Telegram: %d", from.ID)
}

func sessionSource(user *entity.User, from *tgbotapi.User) string {
	if user.Source != "" {
		return user.Source
	}
	return sourceFor(from)
}

func formatCaption(out *app.AnalysisOutput, uniqueTotal int) string {
	var sb strings.Builder
	if out.Count() > 0 {
		fmt.Fprintf(&sb, "🛑 Плохое покрытие: выбоин на кадре %d\n", out.Count())
	} else {
		sb.WriteString("✅ Хорошее покрытие\n")
	}
	fmt.Fprintf(&sb, "Уникальных выбоин за сессию: %d", uniqueTotal)
	if !out.Recorded {
		sb.WriteString("\n⚠️ Запись не сохранена в журнал")
		if errors.Is(out.StoreErr, entity.ErrStoreUnavailable) {
			sb.WriteString(" (хранилище недоступно)")
		}
	}
	return sb.String()
}

func formatHistory(rep *entity.SourceReport, limit int) string {
	if rep.Frames == 0 {
		return msgNoData
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 %s\nКадров: %d, уникальных выбоин: %d\n\n", rep.Source, rep.Frames, rep.UniqueDefects)
	for i, row := range rep.Rows {
		if i == limit {
			fmt.Fprintf(&sb, "… и ещё %d", len(rep.Rows)-limit)
			break
		}
		fmt.Fprintf(&sb, "%s  %d  %s\n", row.Timestamp.Local().Format(report.TimeLayout), row.DefectCount, row.Quality)
	}
	return strings.TrimRight(sb.String(), "\n")
}
