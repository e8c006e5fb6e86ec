package model

import "time"

// Table names match the source database tables. Each table is mirrored
// into one Parquet file named "<table>.parquet" in the data directory.
const (
	TableEstimations = "fpp_estimations"
	TableEvents      = "fpp_events"
	TablePageViews   = "fpp_page_views"
	TableRooms       = "fpp_rooms"
	TableUsers       = "fpp_users"
	TableVotes       = "fpp_votes"
)

// Tables lists every mirrored table. Order matters only for logging.
var Tables = []string{
	TableEstimations,
	TableEvents,
	TablePageViews,
	TableRooms,
	TableUsers,
	TableVotes,
}

// Source smallint columns are carried as int32: the Parquet writer has
// no Go int16 support, so the 16-bit width lives in the column
// annotation instead.

// Estimation is a single card pick by a user in a room. The value is
// null for spectators, who join a round without picking a card.
type Estimation struct {
	ID          int64     `parquet:"id" json:"id"`
	UserID      string    `parquet:"user_id" json:"user_id"`
	RoomID      int32     `parquet:"room_id,int(16)" json:"room_id"`
	Estimation  *int32    `parquet:"estimation,optional,int(16)" json:"estimation"`
	Spectator   bool      `parquet:"spectator" json:"spectator"`
	EstimatedAt time.Time `parquet:"estimated_at,timestamp" json:"estimated_at"`
}

// Vote is a completed voting round with pre-aggregated estimation stats.
type Vote struct {
	ID                  int64     `parquet:"id" json:"id"`
	RoomID              int32     `parquet:"room_id,int(16)" json:"room_id"`
	AvgEstimation       float64   `parquet:"avg_estimation" json:"avg_estimation"`
	MinEstimation       int32     `parquet:"min_estimation,int(16)" json:"min_estimation"`
	MaxEstimation       int32     `parquet:"max_estimation,int(16)" json:"max_estimation"`
	AmountOfEstimations int32     `parquet:"amount_of_estimations,int(16)" json:"amount_of_estimations"`
	AmountOfSpectators  int32     `parquet:"amount_of_spectators,int(16)" json:"amount_of_spectators"`
	Duration            int32     `parquet:"duration,int(16)" json:"duration"` // seconds
	WasAutoFlip         bool      `parquet:"was_auto_flip" json:"was_auto_flip"`
	VotedAt             time.Time `parquet:"voted_at,timestamp" json:"voted_at"`
}

// PageView is a single page impression. Source and RoomID are nullable
// in the source schema.
type PageView struct {
	ID       int64     `parquet:"id" json:"id"`
	UserID   string    `parquet:"user_id" json:"user_id"`
	Route    string    `parquet:"route" json:"route"`
	Source   *string   `parquet:"source,optional" json:"source"`
	RoomID   *int32    `parquet:"room_id,optional,int(16)" json:"room_id"`
	ViewedAt time.Time `parquet:"viewed_at,timestamp" json:"viewed_at"`
}

// Event is a named product event (e.g. a contact click).
type Event struct {
	ID         int64     `parquet:"id" json:"id"`
	UserID     string    `parquet:"user_id" json:"user_id"`
	Event      string    `parquet:"event" json:"event"`
	OccurredAt time.Time `parquet:"occurred_at,timestamp" json:"occurred_at"`
}

// Room is a planning-poker room.
type Room struct {
	ID          int64     `parquet:"id" json:"id"`
	Number      int32     `parquet:"number,int(16)" json:"number"`
	Name        string    `parquet:"name" json:"name"`
	FirstUsedAt time.Time `parquet:"first_used_at,timestamp" json:"first_used_at"`
}

// User carries device and geo metadata. The source table has no
// auto-increment id; created_at acts as the sync key.
type User struct {
	Device    string    `parquet:"device" json:"device"`
	OS        string    `parquet:"os" json:"os"`
	Browser   string    `parquet:"browser" json:"browser"`
	Country   string    `parquet:"country" json:"country"`
	Region    string    `parquet:"region" json:"region"`
	City      string    `parquet:"city" json:"city"`
	CreatedAt time.Time `parquet:"created_at,timestamp" json:"created_at"`
}

// SyncKey returns the monotonic merge key for watermark-based syncing.
// For id-keyed tables this is the row id; users key on created_at
// (nanoseconds) because the source table exposes no id.

func (e Estimation) SyncKey() int64 { return e.ID }
func (v Vote) SyncKey() int64       { return v.ID }
func (p PageView) SyncKey() int64   { return p.ID }
func (e Event) SyncKey() int64      { return e.ID }
func (r Room) SyncKey() int64       { return r.ID }
func (u User) SyncKey() int64       { return u.CreatedAt.UnixNano() }
