package classify

// The eight fixed topic labels used for moderation filtering and deadline
// lookup. The labels are stored verbatim in the spreadsheet, so they must
// not change without migrating existing rows.
const (
	CategoryMail     = "📨 Почта / Office / Outlook / Teams"
	CategoryPrinter  = "🖨 Принтер / Сканер / Картриджи"
	CategorySoftware = "💾 Программы (1С, AutoCAD, др.)"
	CategoryHardware = "🔧 Компьютеры и ноутбуки"
	CategoryNetwork  = "🌐 Интернет / Сеть / Кабели"
	CategoryAccess   = "🚪 Пропуска / СКУД / Видеонаблюдение"
	CategoryAccounts = "👤 Доступы / Учетки / Замена сотрудников"
	CategoryOther    = "📌 Другое / Не по теме"
)

// Action is the classifier's inferred intent.
type Action string

const (
	ActionCreateTask  Action = "create_task"
	ActionCheckStatus Action = "check_status"
	ActionMarkDone    Action = "mark_done"
	ActionOfftopic    Action = "offtopic"
	ActionShowRules   Action = "show_rules"
	ActionComplain    Action = "complain"
)

// Categories returns all labels in their canonical order.
func Categories() []string {
	return []string{
		CategoryMail,
		CategoryPrinter,
		CategorySoftware,
		CategoryHardware,
		CategoryNetwork,
		CategoryAccess,
		CategoryAccounts,
		CategoryOther,
	}
}

func KnownCategory(label string) bool {
	for _, c := range Categories() {
		if c == label {
			return true
		}
	}
	return false
}

func knownAction(a Action) bool {
	switch a {
	case ActionCreateTask, ActionCheckStatus, ActionMarkDone, ActionOfftopic, ActionShowRules, ActionComplain:
		return true
	}
	return false
}
