package taskstore

const (
	StatusNew       = "Новая"
	StatusDone      = "Выполнена"
	StatusCancelled = "Отменена"

	Unassigned = "Не назначен"

	SheetTasks      = "Tasks"
	SheetOfftopic   = "OfftopicLog"
	SheetComplaints = "Complaints"

	timeLayout = "2006-01-02 15:04:05"
)

var (
	taskHeaders = []interface{}{
		"ID Задачи", "Описание Задачи", "Дата Постановки", "Категория",
		"Срок Выполнения (план)", "Статус", "Исполнитель (ID)",
		"Дата Факт. Выполнения", "ID Сообщения Задачи",
		"ID Постановщика Задачи", "Комментарии",
	}
	offtopicHeaders  = []interface{}{"Дата", "ID Пользователя", "Имя Пользователя", "Текст Сообщения"}
	complaintHeaders = []interface{}{"Дата", "ID Пользователя", "Имя Пользователя", "Текст Жалобы", "Связанное Сообщение"}
)

// Task mirrors one row of the Tasks sheet. Columns A through K.
type Task struct {
	ID              int
	Description     string
	CreatedAt       string
	Category        string
	Deadline        string
	Status          string
	Assignee        string
	CompletedAt     string
	SourceMessageID string
	Creator         string
	Comments        string

	row int // 1-based sheet row
}

func taskFromRow(row []string, sheetRow int) (Task, bool) {
	cells := make([]string, 11)
	copy(cells, row)
	id, ok := parseID(cells[0])
	if !ok {
		return Task{}, false
	}
	return Task{
		ID:              id,
		Description:     cells[1],
		CreatedAt:       cells[2],
		Category:        cells[3],
		Deadline:        cells[4],
		Status:          cells[5],
		Assignee:        cells[6],
		CompletedAt:     cells[7],
		SourceMessageID: cells[8],
		Creator:         cells[9],
		Comments:        cells[10],
		row:             sheetRow,
	}, true
}

func parseID(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
