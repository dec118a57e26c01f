package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

// SlotBackend stores raw per-session payloads under a key.
type SlotBackend interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Put(ctx context.Context, sessionID, key string, payload []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}

type memorySlotBackend struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemorySlotBackend keeps slots in process memory. Slots are lost on restart.
func NewMemorySlotBackend() SlotBackend {
	return &memorySlotBackend{
		slots: make(map[string][]byte),
	}
}

func (m *memorySlotBackend) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.slots[slotID(sessionID, key)]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true, nil
}

func (m *memorySlotBackend) Put(_ context.Context, sessionID, key string, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slotID(sessionID, key)] = stored
	return nil
}

func (m *memorySlotBackend) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slotID(sessionID, key))
	return nil
}

func slotID(sessionID, key string) string {
	return sessionID + "\x00" + key
}

type gormSlotBackend struct {
	db *gorm.DB
}

// NewGormSlotBackend persists slots in the result_slots table.
func NewGormSlotBackend(db *gorm.DB) SlotBackend {
	return &gormSlotBackend{db: db}
}

func (g *gormSlotBackend) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var slot models.ResultSlot
	err := g.db.WithContext(ctx).
		Where("session_id = ? AND slot_key = ?", sessionID, key).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find slot: %w", err)
	}

	return []byte(slot.Payload), true, nil
}

func (g *gormSlotBackend) Put(ctx context.Context, sessionID, key string, payload []byte) error {
	now := time.Now()
	slot := models.ResultSlot{
		SessionID: sessionID,
		SlotKey:   key,
		Payload:   string(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := upsertSlot(g.db.WithContext(ctx), &slot).Error; err != nil {
		return fmt.Errorf("failed to save slot: %w", err)
	}

	return nil
}

// upsertSlot overwrites the payload of an existing slot in place.
func upsertSlot(tx *gorm.DB, slot *models.ResultSlot) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(slot)
}

func (g *gormSlotBackend) Delete(ctx context.Context, sessionID, key string) error {
	err := g.db.WithContext(ctx).
		Where("session_id = ? AND slot_key = ?", sessionID, key).
		Delete(&models.ResultSlot{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	return nil
}
