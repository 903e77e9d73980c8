package audit

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// record is the persisted row shape. Payload is the denormalized
// snapshot; room and event type are indexed for the history and
// dispute-resolution read paths.
type record struct {
	ID        int       `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null;index"`

	EventID   string `gorm:"type:VARCHAR(36);not null;uniqueIndex"`
	EventType string `gorm:"type:VARCHAR(64);not null;index"`
	RoomID    string `gorm:"type:VARCHAR(36);not null;index"`

	PickNumber  int `gorm:"not null;index"`
	Participant int
	Row         int
	Col         int
	PlayerID    int
	Price       int

	Payload []byte `gorm:"type:JSONB"`
}

func (record) TableName() string { return "audit_events" }

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Append(ctx context.Context, ev Event) error {
	rec := record{
		CreatedAt:   ev.CreatedAt,
		EventID:     ev.ID,
		EventType:   ev.Type,
		RoomID:      ev.RoomID,
		PickNumber:  ev.PickNumber,
		Participant: ev.Participant,
		Row:         ev.Row,
		Col:         ev.Col,
		PlayerID:    ev.PlayerID,
		Price:       ev.Price,
		Payload:     ev.Snapshot,
	}
	return g.db.WithContext(ctx).Create(&rec).Error
}

func (g *GormStore) History(ctx context.Context, roomID string) ([]Event, error) {
	var recs []record
	err := g.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("pick_number asc, created_at asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]Event, len(recs))
	for i, r := range recs {
		out[i] = Event{
			ID:          r.EventID,
			RoomID:      r.RoomID,
			Type:        r.EventType,
			PickNumber:  r.PickNumber,
			Participant: r.Participant,
			Row:         r.Row,
			Col:         r.Col,
			PlayerID:    r.PlayerID,
			Price:       r.Price,
			Snapshot:    r.Payload,
			CreatedAt:   r.CreatedAt,
		}
	}
	return out, nil
}
