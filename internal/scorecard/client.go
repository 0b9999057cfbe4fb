package scorecard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/pub-golf/internal/models"
)

// APIError is a non-2xx answer from the game service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scorecard: server returned %d: %s", e.Status, e.Message)
}

// HTTPClient talks to the /api/v1 game routes with fiber's HTTP agent.
type HTTPClient struct {
	baseURL string
	token   func() string
	timeout time.Duration
}

// NewHTTPClient creates a client for the server at baseURL (for example
// "https://pubgolf.example.com"). token returns the current bearer token.
func NewHTTPClient(baseURL string, token func() string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   token,
		timeout: 10 * time.Second,
	}
}

// GetGame reads the game document.
func (h *HTTPClient) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	return h.game(ctx, fiber.MethodGet, "/games/"+gameID, nil)
}

// StartGame starts the game as the signed-in user.
func (h *HTTPClient) StartGame(ctx context.Context, gameID string) (*models.Game, error) {
	return h.game(ctx, fiber.MethodPost, "/games/"+gameID+"/start", nil)
}

// FinishGame ends the game as the signed-in user.
func (h *HTTPClient) FinishGame(ctx context.Context, gameID string) (*models.Game, error) {
	return h.game(ctx, fiber.MethodPost, "/games/"+gameID+"/finish", nil)
}

// RecordScore submits playerUID's total for one hole.
func (h *HTTPClient) RecordScore(ctx context.Context, gameID, playerUID string, holeNumber, strokes int) (*models.Game, error) {
	body := fiber.Map{
		"player_uid":  playerUID,
		"hole_number": holeNumber,
		"strokes":     strokes,
	}
	return h.game(ctx, fiber.MethodPost, "/games/"+gameID+"/scores", body)
}

func (h *HTTPClient) game(ctx context.Context, method, path string, body any) (*models.Game, error) {
	var g models.Game
	if err := h.do(ctx, method, path, body, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// do sends one request and decodes a 2xx body into out.
func (h *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	var a *fiber.Agent
	switch method {
	case fiber.MethodGet:
		a = fiber.Get(h.baseURL + path)
	default:
		a = fiber.Post(h.baseURL + path)
	}
	if h.token != nil {
		if tok := h.token(); tok != "" {
			a.Set(fiber.HeaderAuthorization, "Bearer "+tok)
		}
	}
	if body != nil {
		a.JSON(body)
	}
	a.Timeout(timeout)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("scorecard: build request: %w", err)
	}

	// Bytes releases the agent.
	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("scorecard: %s %s: %w", method, path, errs[0])
	}

	if code < 200 || code > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return &APIError{Status: code, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("scorecard: decode %s: %w", path, err)
	}
	return nil
}
