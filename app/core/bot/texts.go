package bot

import (
	"strings"

	"github.com/DagdarionV/telegram-it-admin-bot/app/core/classify"
)

const (
	buttonConfirm = "Подтвердить"
	buttonClarify = "Уточнить"
	buttonCancel  = "Отмена"

	buttonTaskList = "📋 Список задач"
	buttonMarkDone = "✅ Отметить выполненной"
	buttonSettings = "⚙️ Настройки"
	buttonRules    = "📜 Правила чата"

	callbackShowRules = "show_rules"
)

const welcomeText = `Привет! Я бот техподдержки.

Опишите проблему одним сообщением, и я заведу задачу для сисадмина.
Команда /help покажет, что я умею.`

const helpText = `Что я умею:

/task <описание> - создать задачу вручную
/status <ID> - показать статус задачи
/status - показать активные задачи (для админов)
/tasks - показать активные задачи
/done <ID> - отметить задачу выполненной (для сисадмина)
/set_sysadmin @username - назначить сисадмина (для админов)
/iam_sysadmin - принять роль сисадмина

Обычные сообщения с описанием проблемы я классифицирую автоматически.`

var rulesText = buildRulesText()

func buildRulesText() string {
	var b strings.Builder
	b.WriteString("📜 *Правила чата*\n\nРазрешены только ИТ-сообщения, связанные с:\n")
	for _, category := range classify.Categories() {
		if category == classify.CategoryOther {
			continue
		}
		b.WriteString("- ")
		b.WriteString(category)
		b.WriteString("\n")
	}
	b.WriteString("\nЗапрещено:\n")
	b.WriteString("- Разговоры не по теме (погода, личные обсуждения, мемы)\n")
	b.WriteString("- Жалобы, флуд, голосовые сообщения\n\n")
	b.WriteString("Для вопросов о правилах напишите 'Какие темы можно обсуждать?'")
	return b.String()
}

const offtopicNotice = "Ваше сообщение не относится к работе ИТ-отдела и было удалено из чата. Пожалуйста, соблюдайте правила."

const confirmPromptFmt = "Сообщение классифицировано как: *%s*.\nПодтвердите создание задачи или уточните детали:"

const (
	clarifyPrompt  = "Опишите проблему подробнее одним сообщением:"
	draftCancelled = "Создание задачи отменено."
	draftUnknown   = "Пожалуйста, выберите действие кнопкой: Подтвердить, Уточнить или Отмена."

	taskCreatedFmt   = "✅ Задача ID %d создана."
	taskDoneFmt      = "✅ Задача ID %d отмечена как выполненная."
	taskDoneNotice   = "✅ Ваша задача ID %d выполнена!\n\n*%s*"
	taskNotFoundFmt  = "Задача ID %d не найдена."
	noActiveTasks    = "Активных задач нет."
	storeUnavailable = "Хранилище задач недоступно, попробуйте позже."

	adminsOnly   = "Эта команда доступна только администраторам чата."
	sysadminOnly = "Эта команда доступна только сисадмину."

	sysadminAssignedFmt = "✅ Пользователь с ID %d назначен сисадмином."
	sysadminOfferedFmt  = "Пользователь @%s назначен сисадмином. Пусть отправит /iam_sysadmin для подтверждения."
	sysadminClaimedFmt  = "✅ @%s, вы подтверждены как сисадмин."
	sysadminNotPending  = "Роль сисадмина вам не предлагалась."
	setSysadminUsage    = "Использование: /set_sysadmin <ID или @username>"
	doneUsage           = "Использование: /done <ID задачи>"
	statusUsage         = "Использование: /status <ID задачи>"
	taskUsage           = "Использование: /task <описание проблемы>"

	complaintAcceptedMsg = "Жалоба принята и передана модераторам."
	complaintNoticeFmt   = "⚠️ Жалоба от %s:\n%s"

	unknownCommandMsg = "Неизвестная команда. /help покажет список команд."
	genericFailure    = "Что-то пошло не так, попробуйте ещё раз."
)
