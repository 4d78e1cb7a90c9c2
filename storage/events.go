package storage

import (
	"context"
	"encoding/json"

	"tasknotes-api/domain"
)

// EnqueueChange publishes a change event to the events queue.
func (s *Storage) EnqueueChange(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.eventQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
