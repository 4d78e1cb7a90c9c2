package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"tasknotes-api/domain"
)

// ErrNotFound is returned when the requested entity does not exist or does
// not belong to the user.
var ErrNotFound = errors.New("entity not found")

const edmInt64 = "Edm.Int64"

// Storage provides per-user access to the task and note tables and the
// change-event queue. PartitionKey is the user ID, RowKey the entity ID, so
// ownership is enforced by key construction.
type Storage struct {
	taskTable  *aztables.Client
	noteTable  *aztables.Client
	eventQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, notesTable, eventsQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	tt := svc.NewClient(tasksTable)
	nt := svc.NewClient(notesTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: tt, noteTable: nt, eventQueue: eq}, nil
}

type taskEntity struct {
	aztables.Entity
	Title         string `json:"Title"`
	Description   string `json:"Description,omitempty"`
	Priority      string `json:"Priority"`
	Status        string `json:"Status"`
	DueDate       string `json:"DueDate,omitempty"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

type taskUpdateEntity struct {
	aztables.Entity
	Title         *string `json:"Title,omitempty"`
	Description   *string `json:"Description,omitempty"`
	Priority      *string `json:"Priority,omitempty"`
	Status        *string `json:"Status,omitempty"`
	DueDate       *string `json:"DueDate,omitempty"`
	UpdatedAt     *int64  `json:"UpdatedAt,omitempty,string"`
	UpdatedAtType *string `json:"UpdatedAt@odata.type,omitempty"`
}

func encodeTaskEntity(userID string, t domain.Task) taskEntity {
	return taskEntity{
		Entity:        aztables.Entity{PartitionKey: userID, RowKey: t.ID},
		Title:         t.Title,
		Description:   t.Description,
		Priority:      string(t.Priority),
		Status:        string(t.Status),
		DueDate:       t.DueDate,
		CreatedAt:     t.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
		UpdatedAt:     t.UpdatedAt.UnixMilli(),
		UpdatedAtType: edmInt64,
	}
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    domain.Priority(ent.Priority),
		Status:      domain.Status(ent.Status),
		DueDate:     ent.DueDate,
		CreatedAt:   time.UnixMilli(ent.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(ent.UpdatedAt).UTC(),
	}, nil
}

// FetchTasks retrieves all tasks for the provided user, newest first.
func (s *Storage) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			task, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

// GetTask retrieves a single task owned by the user.
func (s *Storage) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	ent, err := s.taskTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return decodeTaskEntity(ent.Value)
}

// InsertTask stores a new task for the user.
func (s *Storage) InsertTask(ctx context.Context, userID string, t domain.Task) error {
	payload, err := json.Marshal(encodeTaskEntity(userID, t))
	if err != nil {
		return err
	}
	_, err = s.taskTable.AddEntity(ctx, payload, nil)
	return err
}

// UpdateTask merges the patch into an existing task, stamps the new
// modification time and returns the refreshed task.
func (s *Storage) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
	ms := updatedAt.UnixMilli()
	et := edmInt64
	upd := taskUpdateEntity{
		Entity:        aztables.Entity{PartitionKey: userID, RowKey: id},
		Title:         patch.Title,
		Description:   patch.Description,
		DueDate:       patch.DueDate,
		UpdatedAt:     &ms,
		UpdatedAtType: &et,
	}
	if patch.Priority != nil {
		p := string(*patch.Priority)
		upd.Priority = &p
	}
	if patch.Status != nil {
		st := string(*patch.Status)
		upd.Status = &st
	}
	payload, err := json.Marshal(upd)
	if err != nil {
		return domain.Task{}, err
	}
	etag := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeMerge})
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return s.GetTask(ctx, userID, id)
}

// DeleteTask removes a task owned by the user.
func (s *Storage) DeleteTask(ctx context.Context, userID, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, userID, id, nil)
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
