package audit_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type recordingStore struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (s *recordingStore) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *recordingStore) ListAuditLogs(context.Context, audit.Filter) ([]models.AuditLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs, int64(len(s.logs)), nil
}

func TestDispatcher_PersistsOnClose(t *testing.T) {
	store := &recordingStore{}
	d := audit.NewDispatcher(audit.New(store), 10)

	id := uint(42)
	d.Dispatch(audit.Event{
		Action:   audit.ActionAppointmentCreated,
		Entity:   "appointment",
		EntityID: &id,
		Metadata: map[string]any{"barber_id": 3},
	})
	d.Close()

	require.Len(t, store.logs, 1)
	assert.Equal(t, audit.ActionAppointmentCreated, store.logs[0].Action)
	assert.Equal(t, uint(42), *store.logs[0].EntityID)
	assert.JSONEq(t, `{"barber_id":3}`, store.logs[0].Metadata)
}

func TestDispatcher_NilIsNoop(t *testing.T) {
	var d *audit.Dispatcher
	assert.NotPanics(t, func() { d.Dispatch(audit.Event{Action: "x"}) })
}
