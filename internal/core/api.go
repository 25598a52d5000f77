// FILE: internal/core/api.go
package core

import "time"

// Request types

type GamesQuery struct {
	Run    string `query:"run" validate:"omitempty,uuid"`
	Player string `query:"player" validate:"omitempty,max=64"`
	Result string `query:"result" validate:"omitempty,oneof=1-0 0-1 1/2-1/2 *"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type MovesQuery struct {
	Run     string `query:"run" validate:"omitempty,uuid"`
	FromPly int    `query:"from" validate:"omitempty,min=1"`
	ToPly   int    `query:"to" validate:"omitempty,min=1,gtefield=FromPly"`
}

// Response types

type RunResponse struct {
	RunID           string    `json:"runId"`
	Username        string    `json:"username,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	Games           int       `json:"games"`
	Skipped         int       `json:"skipped"`
	Plies           int       `json:"plies"`
	UniquePositions int       `json:"uniquePositions"`
	Evaluated       int       `json:"evaluated"`
}

type GameResponse struct {
	RunID           string            `json:"runId"`
	GameID          int               `json:"gameId"`
	White           string            `json:"white"`
	Black           string            `json:"black"`
	Result          string            `json:"result"`
	ResultCode      *int              `json:"resultCode"`
	TerminationCode int               `json:"terminationCode"`
	ECO             string            `json:"eco,omitempty"`
	TimeControl     string            `json:"timeControl,omitempty"`
	StartTime       *time.Time        `json:"startTime,omitempty"`
	EndTime         *time.Time        `json:"endTime,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
}

type MoveResponse struct {
	GameID     int    `json:"gameId"`
	Ply        int    `json:"ply"`
	White      bool   `json:"color"` // true when white moved
	Move       string `json:"move"`
	Clock      string `json:"clock,omitempty"`
	Eval       Eval   `json:"eval"`
	Position   string `json:"position"`
	Evaluation Eval   `json:"evaluation"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
