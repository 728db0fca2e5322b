package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrMeowMurk/ToDoBot/internal/dialog"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
	"github.com/mrMeowMurk/ToDoBot/internal/service"
)

// stubChannel satisfies the dialog contract without a Telegram connection.
type stubChannel struct {
	messages []string
}

func (c *stubChannel) SendMessage(userID int64, text string) error {
	c.messages = append(c.messages, text)
	return nil
}

func (c *stubChannel) SendSelectableList(userID int64, prompt string, items []dialog.ListItem) error {
	c.messages = append(c.messages, prompt)
	return nil
}

func (c *stubChannel) SendDocument(userID int64, name string, payload []byte) error {
	return nil
}

type botEnv struct {
	bot     *Bot
	engine  *dialog.Engine
	channel *stubChannel
	taskSvc *service.TaskService
	users   *repository.UserRepository
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	taskSvc := service.NewTaskService(taskRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	userSvc := service.NewUserService(userRepo)
	transferSvc := service.NewTransferService(taskRepo, categorySvc)

	channel := &stubChannel{}
	engine := dialog.NewEngine(dialog.NewStore(), taskSvc, categorySvc, userSvc, transferSvc, channel, zerolog.Nop())

	return &botEnv{
		bot:     New(nil, engine, userRepo, taskSvc, categorySvc, zerolog.Nop()),
		engine:  engine,
		channel: channel,
		taskSvc: taskSvc,
		users:   userRepo,
	}
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 100, FirstName: "Тест", UserName: "tester"},
		Chat: &tgbotapi.Chat{ID: 100, Type: "private"},
		Text: text,
	}
}

// A message that merely looks like a menu button must stay dialog input
// while a wizard is running: otherwise a task could never carry such a
// title.
func TestMenuLabelTextFeedsActiveDialog(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	user, err := env.users.UpsertFromTelegram(ctx, 100, "Тест", "", "tester")
	require.NoError(t, err)
	require.NoError(t, env.engine.StartAddTask(ctx, user))

	require.NoError(t, env.bot.handleMessage(ctx, textMessage(menuLabelStats)))
	assert.True(t, env.engine.Active(100), "the wizard must survive the label")

	require.NoError(t, env.bot.handleMessage(ctx, textMessage("-")))
	require.NoError(t, env.bot.handleMessage(ctx, textMessage("-")))

	tasks, err := env.taskSvc.ListTasks(ctx, user, false)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, menuLabelStats, tasks[0].Title)
}

func TestParseCallbackID(t *testing.T) {
	id, ok := parseCallbackID("task_42", "task_")
	require.True(t, ok)
	assert.Equal(t, uint(42), id)

	_, ok = parseCallbackID("task_abc", "task_")
	assert.False(t, ok)

	_, ok = parseCallbackID("task_", "task_")
	assert.False(t, ok)
}
