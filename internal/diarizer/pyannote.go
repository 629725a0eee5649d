package diarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

const (
	providerName = "pyannote"

	defaultBaseURL = "http://localhost:8388"
	defaultTimeout = 300 * time.Second
)

// PyannoteClient talks to a pyannote diarization sidecar over HTTP. The
// sidecar owns model loading and warm-up; this client only implements the
// call contract.
type PyannoteClient struct {
	baseURL   string
	authToken string
	client    *http.Client
}

// NewPyannoteClient creates a client from the diarizer settings.
func NewPyannoteClient(cfg *conf.DiarizerConfig) *PyannoteClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &PyannoteClient{
		baseURL:   baseURL,
		authToken: cfg.AuthToken,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the backend name.
func (p *PyannoteClient) Name() string { return providerName }

// IsAvailable checks whether the sidecar responds on its health endpoint.
func (p *PyannoteClient) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	p.setAuth(req)
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Diarize uploads the segment as a WAV file and decodes the labeled
// intervals. Any transport failure, non-200 status, or sidecar-reported
// error comes back as an analysis failure.
func (p *PyannoteClient) Diarize(ctx context.Context, req Request) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, p.failure(fmt.Errorf("create form file: %w", err))
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, p.failure(fmt.Errorf("write audio data: %w", err))
	}

	if req.MinSpeakers > 0 {
		_ = writer.WriteField("min_speakers", fmt.Sprintf("%d", req.MinSpeakers))
	}
	if req.MaxSpeakers > 0 {
		_ = writer.WriteField("max_speakers", fmt.Sprintf("%d", req.MaxSpeakers))
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/diarize", &buf)
	if err != nil {
		return nil, p.failure(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	p.setAuth(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, p.failure(fmt.Errorf("diarization request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, p.failure(fmt.Errorf("diarization error (status %d): %s", resp.StatusCode, string(body)))
	}

	var result pyannoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, p.failure(fmt.Errorf("decode diarization response: %w", err))
	}
	if result.Error != "" {
		return nil, p.failure(fmt.Errorf("diarization error: %s", result.Error))
	}

	return result.toResponse(), nil
}

func (p *PyannoteClient) setAuth(req *http.Request) {
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}
}

func (p *PyannoteClient) failure(err error) error {
	return errors.Join(errors.ErrAnalysisFailed,
		errors.New(err).
			Component("diarizer").
			Category(errors.CategoryAudioAnalysis).
			Build())
}

// pyannote sidecar API types

type pyannoteResponse struct {
	Segments    []pyannoteSegment `json:"segments"`
	NumSpeakers int               `json:"num_speakers"`
	Error       string            `json:"error,omitempty"`
}

type pyannoteSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func (r *pyannoteResponse) toResponse() *Response {
	intervals := make([]SpeakerInterval, len(r.Segments))
	for i, seg := range r.Segments {
		intervals[i] = SpeakerInterval{
			Label: seg.SpeakerID,
			Start: seg.StartTime,
			End:   seg.EndTime,
		}
	}
	return &Response{
		Intervals:   intervals,
		NumSpeakers: r.NumSpeakers,
	}
}
