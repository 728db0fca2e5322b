package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
)

// handlerFunc processes one input against one state. Every state must have
// an entry in handlers; dialog_completeness_test.go enforces this.
type handlerFunc func(e *Engine, ctx context.Context, user *model.User, sess *Session, in Input) error

var handlers = map[State]handlerFunc{
	StateIdle:                      (*Engine).handleIdle,
	StateAwaitingTitle:             (*Engine).handleAwaitingTitle,
	StateAwaitingDescription:       (*Engine).handleAwaitingDescription,
	StateAwaitingDueDate:           (*Engine).handleAwaitingDueDate,
	StateAwaitingDeleteTarget:      (*Engine).handleAwaitingDeleteTarget,
	StateAwaitingCompleteTarget:    (*Engine).handleAwaitingCompleteTarget,
	StateAwaitingCategoryName:      (*Engine).handleAwaitingCategoryName,
	StateAwaitingCategoryColor:     (*Engine).handleAwaitingCategoryColor,
	StateAwaitingNotificationHours: (*Engine).handleAwaitingNotificationHours,
	StateAwaitingEditTitle:         (*Engine).handleAwaitingEditTitle,
	StateAwaitingEditDescription:   (*Engine).handleAwaitingEditDescription,
	StateAwaitingEditDueDate:       (*Engine).handleAwaitingEditDueDate,
	StateAwaitingEditPriority:      (*Engine).handleAwaitingEditPriority,
	StateAwaitingEditCategory:      (*Engine).handleAwaitingEditCategory,
}

// isSkip reports whether the input is the "no value" sentinel.
func isSkip(text string) bool {
	return strings.TrimSpace(text) == "-"
}

func parseToken(token, prefix string) (uint, bool) {
	raw, found := strings.CutPrefix(token, prefix)
	if !found {
		return 0, false
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(value), true
}

// handleIdle covers input arriving outside any flow: documents trigger an
// import, stale selections are dropped, text gets a gentle hint.
func (e *Engine) handleIdle(ctx context.Context, user *model.User, sess *Session, in Input) error {
	switch in.Kind {
	case KindDocument:
		count, err := e.transfer.Import(ctx, user, in.Document)
		if err != nil {
			e.log.Error().Err(err).Int64("user", user.TelegramID).Msg("import failed")
			return e.channel.SendMessage(user.TelegramID, "❌ Ошибка при импорте задач. Проверьте формат файла.")
		}
		e.log.Info().Int64("user", user.TelegramID).Int("count", count).Msg("tasks imported")
		return e.channel.SendMessage(user.TelegramID, fmt.Sprintf("✅ Задачи успешно импортированы: %d шт.", count))
	case KindSelection:
		// A leftover callback from a list the user already walked away from.
		return nil
	default:
		return e.channel.SendMessage(user.TelegramID,
			"Я не понял сообщение. Нажмите /add, чтобы добавить задачу, или /help для списка команд.")
	}
}

func (e *Engine) handleAwaitingTitle(ctx context.Context, user *model.User, sess *Session, in Input) error {
	text := strings.TrimSpace(in.Text)
	if in.Kind != KindText || text == "" {
		return e.channel.SendMessage(user.TelegramID, "📝 Введите название задачи текстом:")
	}

	sess.Draft.Title = text
	sess.State = StateAwaitingDescription
	return e.channel.SendMessage(user.TelegramID,
		"📝 Теперь введите описание задачи (или отправьте «-», если описание не нужно):")
}

func (e *Engine) handleAwaitingDescription(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindText {
		return e.channel.SendMessage(user.TelegramID, "📝 Введите описание текстом (или «-», чтобы пропустить):")
	}

	if !isSkip(in.Text) {
		sess.Draft.Description = strings.TrimSpace(in.Text)
	}
	sess.State = StateAwaitingDueDate
	return e.channel.SendMessage(user.TelegramID,
		"📅 Введите дату выполнения в формате ДД.ММ.ГГГГ (или отправьте «-», если дата не нужна):")
}

// handleAwaitingDueDate is the one validate-and-retry step: a bad date keeps
// the state and re-prompts; a good date (or skip) creates the task and ends
// the flow.
func (e *Engine) handleAwaitingDueDate(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindText {
		return e.channel.SendMessage(user.TelegramID, "📅 Введите дату текстом (или «-», чтобы пропустить):")
	}

	if !isSkip(in.Text) {
		parsed, err := time.Parse(dueDateLayout, strings.TrimSpace(in.Text))
		if err != nil {
			return e.channel.SendMessage(user.TelegramID, "❌ Неверный формат даты. Попробуйте ещё раз.")
		}
		sess.Draft.DueDate = &parsed
	}

	task, err := e.tasks.CreateTask(ctx, user, sess.Draft.Title, sess.Draft.Description, sess.Draft.DueDate)
	if err != nil {
		return e.reportFailure(user, err)
	}

	e.log.Info().Int64("user", user.TelegramID).Uint("task", task.ID).Msg("task created")
	e.store.Clear(user.TelegramID)
	return e.channel.SendMessage(user.TelegramID, "✅ Задача успешно добавлена!")
}

func (e *Engine) handleAwaitingDeleteTarget(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindSelection {
		return e.channel.SendMessage(user.TelegramID, "❌ Выберите задачу кнопкой из списка.")
	}
	taskID, ok := parseToken(in.Selection, "task_")
	if !ok {
		return e.channel.SendMessage(user.TelegramID, "❌ Выберите задачу кнопкой из списка.")
	}

	task, err := e.tasks.DeleteTask(ctx, user, taskID)
	e.store.Clear(user.TelegramID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.channel.SendMessage(user.TelegramID, "❌ Задача не найдена!")
	case err != nil:
		return e.reportFailure(user, err)
	}

	e.log.Info().Int64("user", user.TelegramID).Uint("task", task.ID).Msg("task deleted")
	return e.channel.SendMessage(user.TelegramID, "✅ Задача успешно удалена!")
}

func (e *Engine) handleAwaitingCompleteTarget(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindSelection {
		return e.channel.SendMessage(user.TelegramID, "✅ Выберите задачу кнопкой из списка.")
	}
	taskID, ok := parseToken(in.Selection, "task_")
	if !ok {
		return e.channel.SendMessage(user.TelegramID, "✅ Выберите задачу кнопкой из списка.")
	}

	task, err := e.tasks.CompleteTask(ctx, user, taskID)
	e.store.Clear(user.TelegramID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.channel.SendMessage(user.TelegramID, "❌ Задача не найдена!")
	case err != nil:
		return e.reportFailure(user, err)
	}

	e.log.Info().Int64("user", user.TelegramID).Uint("task", task.ID).Msg("task completed")
	return e.channel.SendMessage(user.TelegramID, "✅ Задача отмечена как выполненная!")
}

func (e *Engine) handleAwaitingCategoryName(ctx context.Context, user *model.User, sess *Session, in Input) error {
	text := strings.TrimSpace(in.Text)
	if in.Kind != KindText || text == "" {
		return e.channel.SendMessage(user.TelegramID, "📝 Введите название категории текстом:")
	}

	sess.CategoryName = text
	sess.State = StateAwaitingCategoryColor
	return e.channel.SendMessage(user.TelegramID, "🎨 Введите цвет категории в формате HEX (например, #FF0000):")
}

func (e *Engine) handleAwaitingCategoryColor(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindText {
		return e.channel.SendMessage(user.TelegramID, "🎨 Введите цвет текстом, например #FF0000:")
	}

	_, err := e.categories.CreateCategory(ctx, user, sess.CategoryName, strings.TrimSpace(in.Text))
	e.store.Clear(user.TelegramID)
	if err != nil {
		e.log.Error().Err(err).Int64("user", user.TelegramID).Msg("create category failed")
		return e.channel.SendMessage(user.TelegramID, "❌ Ошибка при добавлении категории. Попробуйте ещё раз.")
	}
	return e.channel.SendMessage(user.TelegramID, "✅ Категория успешно добавлена!")
}

func (e *Engine) handleAwaitingNotificationHours(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindText {
		return e.channel.SendMessage(user.TelegramID, "❌ Неверное значение. Введите число от 1 до 24:")
	}

	hours, err := strconv.Atoi(strings.TrimSpace(in.Text))
	if err != nil || hours < 1 || hours > 24 {
		return e.channel.SendMessage(user.TelegramID, "❌ Неверное значение. Введите число от 1 до 24:")
	}

	if err := e.users.SetNotificationLeadHours(ctx, user, hours); err != nil {
		return e.reportFailure(user, err)
	}
	e.store.Clear(user.TelegramID)
	return e.channel.SendMessage(user.TelegramID,
		fmt.Sprintf("✅ Время уведомлений установлено на %d часов до дедлайна.", hours))
}

func (e *Engine) handleAwaitingEditTitle(ctx context.Context, user *model.User, sess *Session, in Input) error {
	text := strings.TrimSpace(in.Text)
	if in.Kind != KindText || text == "" {
		return e.channel.SendMessage(user.TelegramID, "📝 Введите новое название текстом:")
	}
	return e.applyEdit(ctx, user, "✅ Название задачи обновлено!", func() error {
		return e.tasks.SetTitle(ctx, user, sess.TargetTaskID, text)
	})
}

func (e *Engine) handleAwaitingEditDescription(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindText {
		return e.channel.SendMessage(user.TelegramID, "📝 Введите новое описание текстом (или «-», чтобы убрать его):")
	}
	description := strings.TrimSpace(in.Text)
	if isSkip(description) {
		description = ""
	}
	return e.applyEdit(ctx, user, "✅ Описание задачи обновлено!", func() error {
		return e.tasks.SetDescription(ctx, user, sess.TargetTaskID, description)
	})
}

func (e *Engine) handleAwaitingEditDueDate(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindText {
		return e.channel.SendMessage(user.TelegramID, "📅 Введите дату текстом в формате ДД.ММ.ГГГГ:")
	}

	var due *time.Time
	if !isSkip(in.Text) {
		parsed, err := time.Parse(dueDateLayout, strings.TrimSpace(in.Text))
		if err != nil {
			return e.channel.SendMessage(user.TelegramID, "❌ Неверный формат даты. Попробуйте ещё раз.")
		}
		due = &parsed
	}
	return e.applyEdit(ctx, user, "✅ Дата задачи обновлена!", func() error {
		return e.tasks.SetDueDate(ctx, user, sess.TargetTaskID, due)
	})
}

// handleAwaitingEditPriority accepts only the fixed three-way choice. An
// unknown token means a broken keyboard, not user error: log and hold.
func (e *Engine) handleAwaitingEditPriority(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindSelection {
		return e.channel.SendMessage(user.TelegramID, "🎯 Выберите приоритет кнопкой.")
	}

	raw, found := strings.CutPrefix(in.Selection, "priority_")
	priority := model.Priority(raw)
	if !found || !priority.Valid() {
		e.log.Error().Str("token", in.Selection).Int64("user", user.TelegramID).Msg("unexpected priority token")
		return nil
	}
	return e.applyEdit(ctx, user, "✅ Приоритет задачи обновлён!", func() error {
		return e.tasks.SetPriority(ctx, user, sess.TargetTaskID, priority)
	})
}

func (e *Engine) handleAwaitingEditCategory(ctx context.Context, user *model.User, sess *Session, in Input) error {
	if in.Kind != KindSelection {
		return e.channel.SendMessage(user.TelegramID, "📁 Выберите категорию кнопкой.")
	}
	categoryID, ok := parseToken(in.Selection, "category_")
	if !ok {
		e.log.Error().Str("token", in.Selection).Int64("user", user.TelegramID).Msg("unexpected category token")
		return nil
	}
	return e.applyEdit(ctx, user, "✅ Категория задачи обновлена!", func() error {
		return e.tasks.SetCategory(ctx, user, sess.TargetTaskID, categoryID)
	})
}

// applyEdit runs a single-field mutation and ends the flow either way.
func (e *Engine) applyEdit(ctx context.Context, user *model.User, confirmation string, mutate func() error) error {
	err := mutate()
	e.store.Clear(user.TelegramID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.channel.SendMessage(user.TelegramID, "❌ Задача не найдена!")
	case err != nil:
		return e.reportFailure(user, err)
	}
	return e.channel.SendMessage(user.TelegramID, confirmation)
}
