// Package gateway proxies account and game-result operations to the
// external storage service. The analyzer keeps no database of its own;
// everything durable lives behind this client.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every proxied request.
const DefaultTimeout = 10 * time.Second

// SignupRequest is the account creation payload.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// LoginRequest is the credential check payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GameResultRequest stores one finished stage's analysis outcome under the
// player's account.
type GameResultRequest struct {
	Username          string  `json:"username"`
	ResultText        string  `json:"result_text"`
	Emotion           string  `json:"emotion"`
	EmotionConfidence float64 `json:"emotion_confidence"`
	StageNumber       int     `json:"stage_number"`
}

// Health describes the storage service's reachability.
type Health struct {
	Status   string `json:"status"`
	DBServer string `json:"db_server"`
	Code     int    `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// StatusError carries the upstream HTTP status so handlers can forward it
// instead of flattening every failure to 500.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Detail)
}

// Client forwards requests to the storage service.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Signup creates an account and returns the service's raw JSON response.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, "/signup", req, "회원가입 실패")
}

// Login verifies credentials and returns the service's raw JSON response.
func (c *Client) Login(ctx context.Context, req LoginRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, "/login", req, "로그인 실패")
}

// SaveGameResult stores a finished stage's result text and emotion.
func (c *Client) SaveGameResult(ctx context.Context, req GameResultRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, "/game/clear", req, "게임 결과 저장 실패")
}

// LatestResults fetches the storage service's plain-text summary of every
// user's stored results, latest first.
func (c *Client) LatestResults(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/game/result", nil)
	if err != nil {
		return "", fmt.Errorf("요청 생성 실패: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("DB 서버 요청 실패")
		return "", fmt.Errorf("DB 서버에 연결할 수 없습니다: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("응답 읽기 실패: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Detail: "게임 결과 조회 실패"}
	}
	return string(data), nil
}

// CheckHealth probes the storage service root. It never returns an error:
// unreachable upstream is a reportable state, not a failure.
func (c *Client) CheckHealth(ctx context.Context) Health {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return Health{Status: "unhealthy", DBServer: "disconnected", Error: err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Health{Status: "unhealthy", DBServer: "disconnected", Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{Status: "unhealthy", DBServer: "error", Code: resp.StatusCode}
	}
	return Health{Status: "healthy", DBServer: "connected"}
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, fallbackDetail string) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("요청 직렬화 실패: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("DB 서버 요청 실패")
		return nil, fmt.Errorf("DB 서버에 연결할 수 없습니다: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := fallbackDetail
		var upstream struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &upstream) == nil && upstream.Detail != "" {
			detail = upstream.Detail
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: detail}
	}

	return json.RawMessage(data), nil
}
