package domain

import "time"

// Game is a row from the game registry maintained by the games pipeline.
// AppID is the stable Steam identifier used against the review API; the
// storage-assigned game_id is resolved separately at load time.
type Game struct {
	AppID       int64
	ReleaseDate time.Time
}
