package bot

import "fmt"

const helpText = `ℹ️ Доступные команды:

/add - Добавить новую задачу
/list - Показать список задач
/done - Отметить задачу выполненной
/delete - Удалить задачу
/categories - Управление категориями
/stats - Статистика выполнения
/export - Экспортировать задачи в файл
/settings - Настройки уведомлений
/cancel - Прервать текущий диалог
/help - Показать это сообщение

Также можно пользоваться кнопками меню ниже 👇`

func startText(firstName string) string {
	if firstName == "" {
		firstName = "друг"
	}
	return fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Я помогу вам управлять задачами:\n"+
			"📝 добавлять задачи с датой и приоритетом\n"+
			"🔔 напоминать о приближающихся сроках\n"+
			"📊 следить за прогрессом\n\n"+
			"Начните с /add или воспользуйтесь меню ниже.",
		firstName,
	)
}
