// FILE: internal/http/handler.go
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chesspipe/internal/board"
	"chesspipe/internal/core"
	"chesspipe/internal/display"
	"chesspipe/internal/service"
	"chesspipe/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// Queries is the read side of the service the API serves
type Queries interface {
	GetStorageHealth() string
	LatestRun(ctx context.Context) (*storage.RunRecord, error)
	Games(ctx context.Context, f storage.GameFilter) ([]storage.GameRecord, error)
	Moves(ctx context.Context, f storage.MoveFilter) ([]storage.MoveRecord, error)
	Move(ctx context.Context, runID string, gameID, ply int) (*storage.MoveRecord, error)
}

type HTTPHandler struct {
	svc Queries
}

func NewHTTPHandler(svc Queries) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func NewFiberApp(svc Queries, devMode bool) *fiber.App {
	h := NewHTTPHandler(svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	// The dataset browser is served from another port
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Check X-Forwarded-For first, then RemoteIP
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	// Query string validation
	api.Use(validationMiddleware)

	api.Get("/runs/latest", h.GetLatestRun)
	api.Get("/games", h.ListGames)
	api.Get("/games/:gameId/moves", h.ListMoves)
	api.Get("/games/:gameId/moves/:ply/board.svg", h.GetBoardSVG)

	return app
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		response.Error = fe.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// queryError maps service errors onto the response envelope
func queryError(c *fiber.Ctx, err error, notFoundCode string) error {
	switch {
	case errors.Is(err, service.ErrStorageDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(core.ErrorResponse{
			Error:   "persistence disabled",
			Code:    core.ErrStorageDisabled,
			Details: "start the server with -db to serve stored runs",
		})
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "not found",
			Code:  notFoundCode,
		})
	}
	return err
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
	})
}

func (h *HTTPHandler) GetLatestRun(c *fiber.Ctx) error {
	run, err := h.svc.LatestRun(c.UserContext())
	if err != nil {
		return queryError(c, err, core.ErrRunNotFound)
	}
	return c.JSON(runResponse(run))
}

func (h *HTTPHandler) ListGames(c *fiber.Ctx) error {
	q := validatedQuery[core.GamesQuery](c)

	limit := q.Limit
	if limit == 0 {
		limit = 100
	}
	games, err := h.svc.Games(c.UserContext(), storage.GameFilter{
		RunID:  q.Run,
		Player: q.Player,
		Result: q.Result,
		Limit:  limit,
		Offset: q.Offset,
	})
	if err != nil {
		return queryError(c, err, core.ErrRunNotFound)
	}

	out := make([]core.GameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, gameResponse(g))
	}
	return c.JSON(out)
}

func (h *HTTPHandler) ListMoves(c *fiber.Ctx) error {
	gameID, err := c.ParamsInt("gameId")
	if err != nil || gameID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID",
			Code:    core.ErrInvalidRequest,
			Details: "game ID must be a positive integer",
		})
	}
	q := validatedQuery[core.MovesQuery](c)

	moves, err := h.svc.Moves(c.UserContext(), storage.MoveFilter{
		RunID:   q.Run,
		GameID:  gameID,
		FromPly: q.FromPly,
		ToPly:   q.ToPly,
	})
	if err != nil {
		return queryError(c, err, core.ErrGameNotFound)
	}

	out := make([]core.MoveResponse, 0, len(moves))
	for _, m := range moves {
		out = append(out, moveResponse(m))
	}
	return c.JSON(out)
}

// GetBoardSVG draws the position after a ply
func (h *HTTPHandler) GetBoardSVG(c *fiber.Ctx) error {
	gameID, err1 := c.ParamsInt("gameId")
	ply, err2 := c.ParamsInt("ply")
	if err1 != nil || err2 != nil || gameID < 1 || ply < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID or ply",
			Code:    core.ErrInvalidRequest,
			Details: "game ID and ply must be positive integers",
		})
	}
	q := validatedQuery[core.MovesQuery](c)

	move, err := h.svc.Move(c.UserContext(), q.Run, gameID, ply)
	if err != nil {
		return queryError(c, err, core.ErrMoveNotFound)
	}

	b, err := board.ParseFEN(move.Position)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error:   "stored position is not a valid FEN",
			Code:    core.ErrInvalidFEN,
			Details: err.Error(),
		})
	}

	var buf bytes.Buffer
	display.WriteSVG(&buf, b, c.QueryInt("size", 45))
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(buf.Bytes())
}

func runResponse(r *storage.RunRecord) core.RunResponse {
	return core.RunResponse{
		RunID:           r.RunID,
		Username:        r.Username,
		StartedAt:       r.StartedAt,
		Games:           r.Games,
		Skipped:         r.Skipped,
		Plies:           r.Plies,
		UniquePositions: r.UniquePositions,
		Evaluated:       r.Evaluated,
	}
}

func gameResponse(g storage.GameRecord) core.GameResponse {
	resp := core.GameResponse{
		RunID:           g.RunID,
		GameID:          g.GameID,
		White:           g.White,
		Black:           g.Black,
		Result:          g.Result,
		TerminationCode: g.TerminationCode,
		ECO:             g.ECO,
		TimeControl:     g.TimeControl,
		Tags:            g.Tags,
	}
	if g.ResultCode >= 0 {
		code := g.ResultCode
		resp.ResultCode = &code
	}
	if !g.StartTimeUTC.IsZero() {
		t := g.StartTimeUTC
		resp.StartTime = &t
	}
	if !g.EndTimeUTC.IsZero() {
		t := g.EndTimeUTC
		resp.EndTime = &t
	}
	return resp
}

func moveResponse(m storage.MoveRecord) core.MoveResponse {
	return core.MoveResponse{
		GameID:     m.GameID,
		Ply:        m.Ply,
		White:      m.Color.IsWhite(),
		Move:       m.Move,
		Clock:      m.Clock,
		Eval:       m.Eval,
		Position:   m.Position,
		Evaluation: m.Evaluation,
	}
}
