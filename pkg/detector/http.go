package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPDetector calls an external model server that runs the actual
// object-detection weights. One HTTPDetector serves one model.
type HTTPDetector struct {
	baseURL    string
	modelID    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPDetector creates a client for the model server at baseURL, bound to
// the given model identifier ("htp", "pitr", ...).
func NewHTTPDetector(baseURL, modelID string, timeout time.Duration, logger *logrus.Logger) *HTTPDetector {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPDetector{
		baseURL: baseURL,
		modelID: modelID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// detectResponse mirrors the model server's JSON reply.
type detectResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Detections []struct {
		Class      string     `json:"class"`
		Confidence float64    `json:"confidence"`
		Box        [4]float64 `json:"box"`
	} `json:"detections"`
	Labels map[int]string `json:"labels,omitempty"`
}

// Detect uploads the image and returns the model's labeled boxes. A run
// with no detections returns an empty Result, not an error.
func (d *HTTPDetector) Detect(ctx context.Context, imagePath string, confidenceFloor float64) (*Result, error) {
	d.logger.WithFields(logrus.Fields{
		"model": d.modelID,
		"image": filepath.Base(imagePath),
	}).Debug("객체 탐지 요청 전송")

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("이미지 파일 읽기 오류: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileWriter, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("multipart form 생성 오류: %w", err)
	}
	if _, err := fileWriter.Write(imageData); err != nil {
		return nil, fmt.Errorf("이미지 데이터 기록 오류: %w", err)
	}

	if err := writer.WriteField("model", d.modelID); err != nil {
		return nil, fmt.Errorf("model 필드 기록 오류: %w", err)
	}
	if err := writer.WriteField("conf", fmt.Sprintf("%.2f", confidenceFloor)); err != nil {
		return nil, fmt.Errorf("conf 필드 기록 오류: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("multipart writer 종료 오류: %w", err)
	}

	url := fmt.Sprintf("%s/detect", d.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("HTTP 요청 생성 오류: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP 요청 전송 오류: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("응답 읽기 오류: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("모델 서버 오류: 상태 %d, 응답: %s", resp.StatusCode, string(respBody))
	}

	var parsed detectResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("JSON 응답 파싱 오류: %w", err)
	}
	if parsed.Status != "" && parsed.Status != "success" {
		return nil, fmt.Errorf("모델 서버가 오류를 반환했습니다: %s", parsed.Message)
	}

	result := &Result{Labels: parsed.Labels}
	for _, det := range parsed.Detections {
		result.Detections = append(result.Detections, toDetection(det.Class, det.Confidence, det.Box))
	}

	d.logger.WithFields(logrus.Fields{
		"model": d.modelID,
		"count": len(result.Detections),
	}).Debug("객체 탐지 완료")
	return result, nil
}

// CheckHealth verifies the model server is reachable and the model loaded.
func (d *HTTPDetector) CheckHealth(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", d.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("HTTP 요청 생성 오류: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("모델 서버 연결 오류: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("모델 서버 비정상 상태: %d", resp.StatusCode)
	}
	return nil
}
