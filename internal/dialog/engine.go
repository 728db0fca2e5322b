package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
)

// dueDateLayout is the fixed calendar format for user-entered dates.
const dueDateLayout = "02.01.2006"

// ListItem is one selectable entry shown to the user.
type ListItem struct {
	Label string
	Token string
}

// Channel delivers outbound prompts and documents. The Telegram adapter
// implements it; tests substitute a recorder.
type Channel interface {
	SendMessage(userID int64, text string) error
	SendSelectableList(userID int64, prompt string, items []ListItem) error
	SendDocument(userID int64, name string, payload []byte) error
}

// Tasks is the slice of task operations the dialogs need.
type Tasks interface {
	CreateTask(ctx context.Context, user *model.User, title, description string, due *time.Time) (*model.Task, error)
	ListTasks(ctx context.Context, user *model.User, onlyPending bool) ([]model.Task, error)
	GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error)
	CompleteTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error)
	DeleteTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error)
	SetTitle(ctx context.Context, user *model.User, taskID uint, title string) error
	SetDescription(ctx context.Context, user *model.User, taskID uint, description string) error
	SetDueDate(ctx context.Context, user *model.User, taskID uint, due *time.Time) error
	SetPriority(ctx context.Context, user *model.User, taskID uint, priority model.Priority) error
	SetCategory(ctx context.Context, user *model.User, taskID, categoryID uint) error
}

// Categories is the category surface used by the dialogs.
type Categories interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, user *model.User, name, color string) (*model.Category, error)
}

// Users mutates user preferences.
type Users interface {
	SetNotificationLeadHours(ctx context.Context, user *model.User, hours int) error
}

// Transfer handles task export and import.
type Transfer interface {
	Export(ctx context.Context, user *model.User) ([]byte, error)
	ExportFilename(now time.Time) string
	Import(ctx context.Context, user *model.User, payload []byte) (int, error)
}

// Engine drives every multi-turn dialog as a finite-state machine keyed by
// user identity. It owns the session store; persisted entity state never
// leaks into dialog state.
type Engine struct {
	store      *Store
	tasks      Tasks
	categories Categories
	users      Users
	transfer   Transfer
	channel    Channel
	log        zerolog.Logger
}

func NewEngine(store *Store, tasks Tasks, categories Categories, users Users, transfer Transfer, channel Channel, log zerolog.Logger) *Engine {
	return &Engine{
		store:      store,
		tasks:      tasks,
		categories: categories,
		users:      users,
		transfer:   transfer,
		channel:    channel,
		log:        log.With().Str("component", "dialog").Logger(),
	}
}

// HandleInput dispatches one inbound event against the user's current state.
func (e *Engine) HandleInput(ctx context.Context, user *model.User, in Input) error {
	sess, ok := e.store.Get(user.TelegramID)
	if !ok {
		sess = &Session{State: StateIdle}
	}

	handler, ok := handlers[sess.State]
	if !ok {
		e.store.Clear(user.TelegramID)
		return fmt.Errorf("no handler for state %s", sess.State)
	}

	e.log.Debug().Int64("user", user.TelegramID).Stringer("state", sess.State).Msg("dialog input")
	return handler(e, ctx, user, sess, in)
}

// Active reports whether the user is in the middle of a flow. The transport
// adapter uses it to decide whether a callback belongs to the dialog.
func (e *Engine) Active(userID int64) bool {
	_, ok := e.store.Get(userID)
	return ok
}

// Cancel aborts whatever flow is active and discards its scratch data.
func (e *Engine) Cancel(user *model.User) error {
	e.store.Clear(user.TelegramID)
	return e.channel.SendMessage(user.TelegramID, "⏪ Действие отменено.")
}

// StartAddTask enters the add-task wizard.
func (e *Engine) StartAddTask(ctx context.Context, user *model.User) error {
	e.store.Begin(user.TelegramID, StateAwaitingTitle)
	return e.channel.SendMessage(user.TelegramID, "📝 Введите название задачи:")
}

// StartDeleteTask lists the user's tasks for deletion. With nothing to
// delete the dialog stays idle.
func (e *Engine) StartDeleteTask(ctx context.Context, user *model.User) error {
	tasks, err := e.tasks.ListTasks(ctx, user, false)
	if err != nil {
		return e.reportFailure(user, err)
	}
	if len(tasks) == 0 {
		return e.channel.SendMessage(user.TelegramID, "📋 У вас пока нет задач для удаления!")
	}

	e.store.Begin(user.TelegramID, StateAwaitingDeleteTarget)
	return e.channel.SendSelectableList(user.TelegramID, "❌ Выберите задачу для удаления:", taskItems(tasks))
}

// StartCompleteTask lists only incomplete tasks for completion.
func (e *Engine) StartCompleteTask(ctx context.Context, user *model.User) error {
	tasks, err := e.tasks.ListTasks(ctx, user, true)
	if err != nil {
		return e.reportFailure(user, err)
	}
	if len(tasks) == 0 {
		return e.channel.SendMessage(user.TelegramID, "📋 У вас нет невыполненных задач!")
	}

	e.store.Begin(user.TelegramID, StateAwaitingCompleteTarget)
	return e.channel.SendSelectableList(user.TelegramID, "✅ Выберите задачу для отметки как выполненной:", taskItems(tasks))
}

// StartCreateCategory enters the category-creation wizard.
func (e *Engine) StartCreateCategory(ctx context.Context, user *model.User) error {
	e.store.Begin(user.TelegramID, StateAwaitingCategoryName)
	return e.channel.SendMessage(user.TelegramID, "📝 Введите название новой категории:")
}

// StartNotificationHours asks for the reminder lead time.
func (e *Engine) StartNotificationHours(ctx context.Context, user *model.User) error {
	e.store.Begin(user.TelegramID, StateAwaitingNotificationHours)
	return e.channel.SendMessage(user.TelegramID,
		"🔔 За сколько часов до дедлайна вы хотите получать уведомления?\nВведите число от 1 до 24:")
}

// StartEditTitle begins a single-field edit carrying the target task id.
func (e *Engine) StartEditTitle(ctx context.Context, user *model.User, taskID uint) error {
	return e.startFieldEdit(ctx, user, taskID, StateAwaitingEditTitle, "📝 Введите новое название задачи:")
}

func (e *Engine) StartEditDescription(ctx context.Context, user *model.User, taskID uint) error {
	return e.startFieldEdit(ctx, user, taskID, StateAwaitingEditDescription,
		"📝 Введите новое описание задачи (или «-», чтобы убрать его):")
}

func (e *Engine) StartEditDueDate(ctx context.Context, user *model.User, taskID uint) error {
	return e.startFieldEdit(ctx, user, taskID, StateAwaitingEditDueDate,
		"📅 Введите новую дату в формате ДД.ММ.ГГГГ (или «-», чтобы убрать дату):")
}

func (e *Engine) StartEditPriority(ctx context.Context, user *model.User, taskID uint) error {
	ok, err := e.ensureTask(ctx, user, taskID)
	if !ok {
		return err
	}
	sess := e.store.Begin(user.TelegramID, StateAwaitingEditPriority)
	sess.TargetTaskID = taskID
	return e.channel.SendSelectableList(user.TelegramID, "🎯 Выберите новый приоритет:", []ListItem{
		{Label: "⬆️ Высокий", Token: "priority_high"},
		{Label: "➡️ Средний", Token: "priority_medium"},
		{Label: "⬇️ Низкий", Token: "priority_low"},
	})
}

func (e *Engine) StartEditCategory(ctx context.Context, user *model.User, taskID uint) error {
	ok, err := e.ensureTask(ctx, user, taskID)
	if !ok {
		return err
	}
	categories, err := e.categories.ListCategories(ctx)
	if err != nil {
		return e.reportFailure(user, err)
	}
	if len(categories) == 0 {
		return e.channel.SendMessage(user.TelegramID, "📁 Категорий пока нет. Сначала создайте хотя бы одну.")
	}

	sess := e.store.Begin(user.TelegramID, StateAwaitingEditCategory)
	sess.TargetTaskID = taskID
	items := make([]ListItem, 0, len(categories))
	for _, cat := range categories {
		items = append(items, ListItem{
			Label: fmt.Sprintf("🎨 %s", cat.Name),
			Token: fmt.Sprintf("category_%d", cat.ID),
		})
	}
	return e.channel.SendSelectableList(user.TelegramID, "📁 Выберите категорию:", items)
}

// ExportTasks serializes the user's tasks and ships them as a document.
// Export is a single-shot action, not a flow: no dialog state is involved.
func (e *Engine) ExportTasks(ctx context.Context, user *model.User) error {
	payload, err := e.transfer.Export(ctx, user)
	if err != nil {
		return e.reportFailure(user, err)
	}
	if payload == nil {
		return e.channel.SendMessage(user.TelegramID, "📋 У вас пока нет задач для экспорта!")
	}
	name := e.transfer.ExportFilename(time.Now())
	if err := e.channel.SendDocument(user.TelegramID, name, payload); err != nil {
		return e.reportFailure(user, err)
	}
	return nil
}

func (e *Engine) startFieldEdit(ctx context.Context, user *model.User, taskID uint, state State, prompt string) error {
	ok, err := e.ensureTask(ctx, user, taskID)
	if !ok {
		return err
	}
	sess := e.store.Begin(user.TelegramID, state)
	sess.TargetTaskID = taskID
	return e.channel.SendMessage(user.TelegramID, prompt)
}

// ensureTask verifies the edit target still exists before entering a flow.
// ok is false when the flow must not begin; the user has already been told
// why, so the returned error only carries delivery failures.
func (e *Engine) ensureTask(ctx context.Context, user *model.User, taskID uint) (ok bool, _ error) {
	_, err := e.tasks.GetTask(ctx, user, taskID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, e.channel.SendMessage(user.TelegramID, "❌ Задача не найдена!")
	default:
		return false, e.reportFailure(user, err)
	}
}

// reportFailure logs the real error and shows the user a generic message.
// Internal detail never reaches the chat.
func (e *Engine) reportFailure(user *model.User, err error) error {
	e.log.Error().Err(err).Int64("user", user.TelegramID).Msg("dialog operation failed")
	e.store.Clear(user.TelegramID)
	return e.channel.SendMessage(user.TelegramID, "❌ Что-то пошло не так. Попробуйте ещё раз.")
}

func taskItems(tasks []model.Task) []ListItem {
	items := make([]ListItem, 0, len(tasks))
	for _, task := range tasks {
		status := "⏳"
		if task.IsCompleted {
			status = "✅"
		}
		items = append(items, ListItem{
			Label: fmt.Sprintf("%s %s %s", status, task.Priority.Icon(), task.Title),
			Token: fmt.Sprintf("task_%d", task.ID),
		})
	}
	return items
}
