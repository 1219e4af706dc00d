// Package taskstore keeps the task registry in a Google spreadsheet:
// one row per task plus log sheets for off-topic messages and complaints.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrUnavailable = errors.New("task store is unavailable")
	ErrNotFound    = errors.New("task not found")
	ErrNoDeadline  = errors.New("task has no deadline")
)

// ValuesAPI is the slice of the spreadsheet client the store needs.
type ValuesAPI interface {
	Append(ctx context.Context, sheet string, row []interface{}) error
	Rows(ctx context.Context, rng string) ([][]string, error)
	Update(ctx context.Context, rng string, value string) error
}

type Store struct {
	api           ValuesAPI
	deadlineHours map[string]int
	defaultHours  int
	now           func() time.Time
	log           zerolog.Logger
}

// NewStore accepts a nil api, in which case every operation reports
// ErrUnavailable and the bot runs in degraded mode.
func NewStore(api ValuesAPI, deadlineHours map[string]int, defaultHours int, log zerolog.Logger) *Store {
	if defaultHours <= 0 {
		defaultHours = 24
	}
	return &Store{
		api:           api,
		deadlineHours: deadlineHours,
		defaultHours:  defaultHours,
		now:           time.Now,
		log:           log.With().Str("component", "taskstore").Logger(),
	}
}

func (s *Store) Available() bool {
	return s.api != nil
}

// EnsureHeaders writes the header row of each sheet if the sheet is empty.
func (s *Store) EnsureHeaders(ctx context.Context) error {
	if s.api == nil {
		return ErrUnavailable
	}
	sheets := []struct {
		name    string
		headers []interface{}
	}{
		{SheetTasks, taskHeaders},
		{SheetOfftopic, offtopicHeaders},
		{SheetComplaints, complaintHeaders},
	}
	for _, sheet := range sheets {
		rows, err := s.api.Rows(ctx, sheet.name+"!1:1")
		if err != nil {
			return fmt.Errorf("read %s headers: %w", sheet.name, err)
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			continue
		}
		if err := s.api.Append(ctx, sheet.name, sheet.headers); err != nil {
			return fmt.Errorf("write %s headers: %w", sheet.name, err)
		}
		s.log.Info().Str("sheet", sheet.name).Msg("headers created")
	}
	return nil
}

// DeadlineHours returns the resolution window for a category.
func (s *Store) DeadlineHours(category string) int {
	if hours, ok := s.deadlineHours[category]; ok {
		return hours
	}
	return s.defaultHours
}

// CreateTask appends a new row and returns the allocated task ID.
func (s *Store) CreateTask(ctx context.Context, description, category, creator, sourceMessageID, assignee string) (int, error) {
	if s.api == nil {
		return 0, ErrUnavailable
	}
	id := s.nextID(ctx)
	createdAt := s.now()
	deadline := createdAt.Add(time.Duration(s.DeadlineHours(category)) * time.Hour)
	if strings.TrimSpace(assignee) == "" {
		assignee = Unassigned
	}
	row := []interface{}{
		id,
		description,
		createdAt.Format(timeLayout),
		category,
		deadline.Format(timeLayout),
		StatusNew,
		assignee,
		"", // completion date
		sourceMessageID,
		creator,
		"", // comments
	}
	if err := s.api.Append(ctx, SheetTasks, row); err != nil {
		return 0, fmt.Errorf("append task: %w", err)
	}
	s.log.Info().Int("task_id", id).Str("category", category).Msg("task created")
	return id, nil
}

func (s *Store) nextID(ctx context.Context) int {
	rows, err := s.api.Rows(ctx, SheetTasks+"!A2:A")
	if err != nil {
		s.log.Warn().Err(err).Msg("id scan failed, starting from 1")
		return 1
	}
	max := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if id, ok := parseID(row[0]); ok && id > max {
			max = id
		}
	}
	return max + 1
}

// FindTask locates a task by its ID.
func (s *Store) FindTask(ctx context.Context, id int) (Task, error) {
	if s.api == nil {
		return Task{}, ErrUnavailable
	}
	rows, err := s.api.Rows(ctx, SheetTasks+"!A2:K")
	if err != nil {
		return Task{}, fmt.Errorf("read tasks: %w", err)
	}
	for i, row := range rows {
		task, ok := taskFromRow(row, i+2)
		if ok && task.ID == id {
			return task, nil
		}
	}
	return Task{}, ErrNotFound
}

// UpdateStatus sets the status cell of a task. Completing a task also
// stamps the completion date once and claims the assignee cell for the
// acting sysadmin when no one was assigned yet.
func (s *Store) UpdateStatus(ctx context.Context, id int, status string, actorID string) error {
	if s.api == nil {
		return ErrUnavailable
	}
	task, err := s.FindTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.api.Update(ctx, fmt.Sprintf("%s!F%d", SheetTasks, task.row), status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if status == StatusDone {
		if strings.TrimSpace(task.CompletedAt) == "" {
			if err := s.api.Update(ctx, fmt.Sprintf("%s!H%d", SheetTasks, task.row), s.now().Format(timeLayout)); err != nil {
				return fmt.Errorf("update completion date: %w", err)
			}
		}
		assignee := strings.TrimSpace(task.Assignee)
		if (assignee == "" || assignee == Unassigned) && strings.TrimSpace(actorID) != "" {
			if err := s.api.Update(ctx, fmt.Sprintf("%s!G%d", SheetTasks, task.row), actorID); err != nil {
				return fmt.Errorf("update assignee: %w", err)
			}
		}
	}
	s.log.Info().Int("task_id", id).Str("status", status).Msg("task status updated")
	return nil
}

// ListActive returns open tasks in creation order.
func (s *Store) ListActive(ctx context.Context) ([]Task, error) {
	if s.api == nil {
		return nil, ErrUnavailable
	}
	rows, err := s.api.Rows(ctx, SheetTasks+"!A2:K")
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	var active []Task
	for i, row := range rows {
		task, ok := taskFromRow(row, i+2)
		if !ok {
			continue
		}
		if task.Status == StatusDone || task.Status == StatusCancelled {
			continue
		}
		active = append(active, task)
	}
	return active, nil
}

// RemainingTime reports time left until the deadline. The second return
// is true when the deadline has passed.
func (s *Store) RemainingTime(ctx context.Context, id int) (time.Duration, bool, error) {
	task, err := s.FindTask(ctx, id)
	if err != nil {
		return 0, false, err
	}
	return s.remaining(task)
}

func (s *Store) remaining(task Task) (time.Duration, bool, error) {
	deadline := strings.TrimSpace(task.Deadline)
	if deadline == "" {
		return 0, false, ErrNoDeadline
	}
	when, err := time.ParseInLocation(timeLayout, deadline, time.Local)
	if err != nil {
		return 0, false, ErrNoDeadline
	}
	left := when.Sub(s.now())
	if left <= 0 {
		return 0, true, nil
	}
	return left, false, nil
}

// Remaining reports time left for an already loaded task.
func (s *Store) Remaining(task Task) (time.Duration, bool, error) {
	return s.remaining(task)
}

// LogOfftopic appends an off-topic message to its log sheet.
func (s *Store) LogOfftopic(ctx context.Context, userID, userName, text string) error {
	if s.api == nil {
		return ErrUnavailable
	}
	return s.api.Append(ctx, SheetOfftopic, []interface{}{
		s.now().Format(timeLayout), userID, userName, text,
	})
}

// LogComplaint appends a complaint to its log sheet. relatedMessageID may
// be empty.
func (s *Store) LogComplaint(ctx context.Context, userID, userName, text, relatedMessageID string) error {
	if s.api == nil {
		return ErrUnavailable
	}
	return s.api.Append(ctx, SheetComplaints, []interface{}{
		s.now().Format(timeLayout), userID, userName, text, relatedMessageID,
	})
}
