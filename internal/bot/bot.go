package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mrMeowMurk/ToDoBot/internal/dialog"
	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
	"github.com/mrMeowMurk/ToDoBot/internal/service"
)

// maxImportSize caps how much of an uploaded document we are willing to read.
const maxImportSize = 1 << 20

// Bot routes Telegram updates between plain views and the dialog engine.
type Bot struct {
	api         *tgbotapi.BotAPI
	engine      *dialog.Engine
	userRepo    *repository.UserRepository
	taskSvc     *service.TaskService
	categorySvc *service.CategoryService
	log         zerolog.Logger
}

func New(api *tgbotapi.BotAPI, engine *dialog.Engine, userRepo *repository.UserRepository, taskSvc *service.TaskService, categorySvc *service.CategoryService, log zerolog.Logger) *Bot {
	return &Bot{
		api:         api,
		engine:      engine,
		userRepo:    userRepo,
		taskSvc:     taskSvc,
		categorySvc: categorySvc,
		log:         log.With().Str("component", "bot").Logger(),
	}
}

// Start begins polling updates until ctx is cancelled. Each update is handled
// to completion before the next one is taken.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Str("account", b.api.Self.UserName).Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error().Err(err).Msg("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	if msg.IsCommand() {
		b.log.Info().Int64("user", user.TelegramID).Str("command", msg.Command()).Msg("command")
		return b.handleCommand(ctx, user, msg)
	}

	if msg.Document != nil {
		payload, err := b.downloadDocument(ctx, msg.Document.FileID)
		if err != nil {
			b.log.Error().Err(err).Int64("user", user.TelegramID).Msg("download document")
			return b.sendWithMenu(user.TelegramID, "❌ Не удалось получить файл. Попробуйте ещё раз.")
		}
		return b.engine.HandleInput(ctx, user, dialog.Input{Kind: dialog.KindDocument, Document: payload})
	}

	// Mid-flow the dialog owns every plain message, so a task may be titled
	// like a menu button.
	if !b.engine.Active(user.TelegramID) {
		if handled, err := b.handleMenuAlias(ctx, user, msg.Text); handled {
			return err
		}
	}

	return b.engine.HandleInput(ctx, user, dialog.Input{Kind: dialog.KindText, Text: msg.Text})
}

func (b *Bot) handleCommand(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.sendWithMenu(user.TelegramID, startText(msg.From.FirstName))
	case "help":
		return b.sendWithMenu(user.TelegramID, helpText)
	case "add":
		return b.engine.StartAddTask(ctx, user)
	case "list":
		return b.sendTaskList(ctx, user)
	case "done":
		return b.engine.StartCompleteTask(ctx, user)
	case "delete":
		return b.engine.StartDeleteTask(ctx, user)
	case "categories":
		return b.sendCategories(ctx, user)
	case "settings":
		return b.sendSettings(user)
	case "stats":
		return b.sendStats(ctx, user)
	case "export":
		return b.engine.ExportTasks(ctx, user)
	case "cancel":
		return b.engine.Cancel(user)
	default:
		return b.sendWithMenu(user.TelegramID, "Команда не поддерживается. Загляните в /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, user *model.User, text string) (bool, error) {
	switch strings.TrimSpace(text) {
	case menuLabelAddTask:
		return true, b.engine.StartAddTask(ctx, user)
	case menuLabelTasks:
		return true, b.sendTaskList(ctx, user)
	case menuLabelCompleted:
		return true, b.sendCompletedList(ctx, user)
	case menuLabelDelete:
		return true, b.engine.StartDeleteTask(ctx, user)
	case menuLabelStats:
		return true, b.sendStats(ctx, user)
	case menuLabelHelp:
		return true, b.sendWithMenu(user.TelegramID, helpText)
	case menuLabelCategories:
		return true, b.sendCategories(ctx, user)
	case menuLabelSettings:
		return true, b.sendSettings(user)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error().Err(err).Msg("callback ack")
	}

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}

	// A mid-flow tap belongs to the dialog engine, whatever the token.
	if b.engine.Active(user.TelegramID) {
		return b.engine.HandleInput(ctx, user, dialog.Input{Kind: dialog.KindSelection, Selection: cb.Data})
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, "edit_title_"):
		return b.startEdit(ctx, user, data, "edit_title_", b.engine.StartEditTitle)
	case strings.HasPrefix(data, "edit_description_"):
		return b.startEdit(ctx, user, data, "edit_description_", b.engine.StartEditDescription)
	case strings.HasPrefix(data, "edit_date_"):
		return b.startEdit(ctx, user, data, "edit_date_", b.engine.StartEditDueDate)
	case strings.HasPrefix(data, "edit_priority_"):
		return b.startEdit(ctx, user, data, "edit_priority_", b.engine.StartEditPriority)
	case strings.HasPrefix(data, "edit_category_"):
		return b.startEdit(ctx, user, data, "edit_category_", b.engine.StartEditCategory)
	case strings.HasPrefix(data, "edit_"):
		taskID, ok := parseCallbackID(data, "edit_")
		if !ok {
			return nil
		}
		return b.sendEditMenu(ctx, user, taskID)
	case strings.HasPrefix(data, "task_"):
		taskID, ok := parseCallbackID(data, "task_")
		if !ok {
			return nil
		}
		return b.sendTaskDetail(ctx, user, taskID)
	case strings.HasPrefix(data, "complete_"):
		taskID, ok := parseCallbackID(data, "complete_")
		if !ok {
			return nil
		}
		return b.completeTask(ctx, user, taskID)
	case strings.HasPrefix(data, "delete_"):
		taskID, ok := parseCallbackID(data, "delete_")
		if !ok {
			return nil
		}
		return b.deleteTask(ctx, user, taskID)
	case data == "back_to_list":
		return b.sendTaskList(ctx, user)
	case data == "add_category":
		return b.engine.StartCreateCategory(ctx, user)
	case data == "notification_settings":
		return b.engine.StartNotificationHours(ctx, user)
	case data == "export_tasks":
		return b.engine.ExportTasks(ctx, user)
	case data == "import_tasks":
		return b.sendWithMenu(user.TelegramID, "📥 Пришлите файл экспорта документом, и я восстановлю задачи.")
	default:
		// Leftover button from an expired flow.
		return nil
	}
}

func (b *Bot) startEdit(ctx context.Context, user *model.User, data, prefix string, begin func(context.Context, *model.User, uint) error) error {
	taskID, ok := parseCallbackID(data, prefix)
	if !ok {
		return nil
	}
	return begin(ctx, user, taskID)
}

func (b *Bot) sendTaskList(ctx context.Context, user *model.User) error {
	tasks, err := b.taskSvc.ListTasks(ctx, user, false)
	if err != nil {
		return b.sendWithMenu(user.TelegramID, "❌ Не удалось получить задачи.")
	}
	if len(tasks) == 0 {
		return b.sendWithMenu(user.TelegramID, "📋 У вас пока нет задач!")
	}

	var builder strings.Builder
	builder.WriteString("📋 Ваши задачи:\n\n")
	for _, task := range tasks {
		status := "⏳"
		if task.IsCompleted {
			status = "✅"
		}
		builder.WriteString(fmt.Sprintf("%s %s", status, task.Title))
		if task.DueDate != nil {
			builder.WriteString(fmt.Sprintf("\n📅 До: %s", task.DueDate.Format("02.01.2006")))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(user.TelegramID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = taskListKeyboard(tasks)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendCompletedList(ctx context.Context, user *model.User) error {
	tasks, err := b.taskSvc.ListCompleted(ctx, user)
	if err != nil {
		return b.sendWithMenu(user.TelegramID, "❌ Не удалось получить задачи.")
	}
	if len(tasks) == 0 {
		return b.sendWithMenu(user.TelegramID, "📋 У вас нет выполненных задач!")
	}

	var builder strings.Builder
	builder.WriteString("✅ Выполненные задачи:\n\n")
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("✅ %s", task.Title))
		if task.DueDate != nil {
			builder.WriteString(fmt.Sprintf("\n📅 До: %s", task.DueDate.Format("02.01.2006")))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(user.TelegramID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = taskListKeyboard(tasks)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendTaskDetail(ctx context.Context, user *model.User, taskID uint) error {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendWithMenu(user.TelegramID, "❌ Задача не найдена!")
		}
		return err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📝 %s\n", task.Title))
	if task.Description != "" {
		builder.WriteString(fmt.Sprintf("\n📋 Описание:\n%s\n", task.Description))
	}
	if task.DueDate != nil {
		builder.WriteString(fmt.Sprintf("\n📅 До: %s\n", task.DueDate.Format("02.01.2006")))
	}
	if task.CategoryID != nil {
		if category, err := b.categorySvc.GetCategory(ctx, *task.CategoryID); err == nil {
			builder.WriteString(fmt.Sprintf("\n📁 Категория: %s\n", category.Name))
		}
	}
	builder.WriteString(fmt.Sprintf("\n🎯 Приоритет: %s", task.Priority.Icon()))
	if task.IsCompleted {
		builder.WriteString("\nСтатус: ✅ Выполнено")
	} else {
		builder.WriteString("\nСтатус: ⏳ В процессе")
	}

	msg := tgbotapi.NewMessage(user.TelegramID, builder.String())
	msg.ReplyMarkup = taskActionsKeyboard(*task)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendEditMenu(ctx context.Context, user *model.User, taskID uint) error {
	if _, err := b.taskSvc.GetTask(ctx, user, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendWithMenu(user.TelegramID, "❌ Задача не найдена!")
		}
		return err
	}

	msg := tgbotapi.NewMessage(user.TelegramID, "✏️ Что вы хотите изменить?")
	msg.ReplyMarkup = editTaskKeyboard(taskID)
	_, err := b.api.Send(msg)
	return err
}

// completeTask handles the quick-complete button on the detail view.
// Completing an already-completed task just reports success again.
func (b *Bot) completeTask(ctx context.Context, user *model.User, taskID uint) error {
	_, err := b.taskSvc.CompleteTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendWithMenu(user.TelegramID, "❌ Задача не найдена!")
		}
		return err
	}
	return b.sendWithMenu(user.TelegramID, "✅ Задача отмечена как выполненная!")
}

func (b *Bot) deleteTask(ctx context.Context, user *model.User, taskID uint) error {
	_, err := b.taskSvc.DeleteTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendWithMenu(user.TelegramID, "❌ Задача не найдена!")
		}
		return err
	}
	return b.sendWithMenu(user.TelegramID, "✅ Задача успешно удалена!")
}

func (b *Bot) sendCategories(ctx context.Context, user *model.User) error {
	categories, err := b.categorySvc.ListCategories(ctx)
	if err != nil {
		return b.sendWithMenu(user.TelegramID, "❌ Не удалось получить категории.")
	}

	msg := tgbotapi.NewMessage(user.TelegramID, "📁 Ваши категории:")
	msg.ReplyMarkup = categoriesKeyboard(categories)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendSettings(user *model.User) error {
	msg := tgbotapi.NewMessage(user.TelegramID, "⚙️ Настройки:")
	msg.ReplyMarkup = settingsKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendStats(ctx context.Context, user *model.User) error {
	stats, err := b.taskSvc.UserStats(ctx, user)
	if err != nil {
		return b.sendWithMenu(user.TelegramID, "❌ Не удалось собрать статистику.")
	}

	text := fmt.Sprintf(
		"📊 Ваша статистика:\n\n"+
			"📝 Всего задач: %d\n"+
			"✅ Выполнено: %d\n"+
			"⏳ В процессе: %d\n"+
			"📈 Прогресс: %d%%",
		stats.Total, stats.Completed, stats.Pending, stats.Progress,
	)
	return b.sendWithMenu(user.TelegramID, text)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendWithMenu(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) downloadDocument(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file: status %d", resp.StatusCode)
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return payload, nil
}

func parseCallbackID(data, prefix string) (uint, bool) {
	raw := strings.TrimPrefix(data, prefix)
	var id uint
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}
