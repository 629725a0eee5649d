package diarizer

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

func newTestClient() *PyannoteClient {
	return NewPyannoteClient(&conf.DiarizerConfig{
		BaseURL: "http://sidecar.test",
		Timeout: 5,
	})
}

func TestPyannoteDiarize(t *testing.T) {
	c := newTestClient()
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://sidecar.test/diarize",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			file, _, err := req.FormFile("audio")
			require.NoError(t, err)
			file.Close()
			assert.Equal(t, "2", req.FormValue("min_speakers"))
			assert.Equal(t, "4", req.FormValue("max_speakers"))

			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"segments": []map[string]any{
					{"speaker_id": "SPEAKER_00", "start_time": 0.0, "end_time": 1.5},
					{"speaker_id": "SPEAKER_01", "start_time": 1.5, "end_time": 3.0},
				},
				"num_speakers": 2,
			})
		})

	resp, err := c.Diarize(context.Background(), Request{
		Audio:       []byte("RIFF fake wav"),
		MinSpeakers: 2,
		MaxSpeakers: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.NumSpeakers)
	require.Len(t, resp.Intervals, 2)
	assert.Equal(t, "SPEAKER_00", resp.Intervals[0].Label)
	assert.InDelta(t, 1.5, resp.Intervals[0].End, 1e-9)
	assert.Equal(t, "SPEAKER_01", resp.Intervals[1].Label)
}

func TestPyannoteDiarizeOmitsAutoSpeakerBounds(t *testing.T) {
	c := newTestClient()
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://sidecar.test/diarize",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Empty(t, req.FormValue("min_speakers"))
			assert.Empty(t, req.FormValue("max_speakers"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"segments": []map[string]any{}, "num_speakers": 0,
			})
		})

	resp, err := c.Diarize(context.Background(), Request{Audio: []byte("wav")})
	require.NoError(t, err)
	assert.Empty(t, resp.Intervals)
}

func TestPyannoteDiarizeServerError(t *testing.T) {
	c := newTestClient()
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://sidecar.test/diarize",
		httpmock.NewStringResponder(http.StatusInternalServerError, "model crashed"))

	_, err := c.Diarize(context.Background(), Request{Audio: []byte("wav")})
	require.Error(t, err)
	assert.True(t, errors.IsAnalysisFailure(err))
	assert.Contains(t, err.Error(), "model crashed")
}

func TestPyannoteDiarizeSidecarReportedError(t *testing.T) {
	c := newTestClient()
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://sidecar.test/diarize",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"error": "audio too short",
		}))

	_, err := c.Diarize(context.Background(), Request{Audio: []byte("wav")})
	require.Error(t, err)
	assert.True(t, errors.IsAnalysisFailure(err))
}

func TestPyannoteDiarizeUnreachable(t *testing.T) {
	c := newTestClient()
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()
	// No responder registered: the transport refuses the call.

	_, err := c.Diarize(context.Background(), Request{Audio: []byte("wav")})
	require.Error(t, err)
	assert.True(t, errors.IsAnalysisFailure(err))
}

func TestPyannoteIsAvailable(t *testing.T) {
	c := newTestClient()
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "http://sidecar.test/health",
		httpmock.NewStringResponder(http.StatusOK, "ok"))
	assert.True(t, c.IsAvailable(context.Background()))

	httpmock.RegisterResponder(http.MethodGet, "http://sidecar.test/health",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))
	assert.False(t, c.IsAvailable(context.Background()))
}

func TestPyannoteAuthHeader(t *testing.T) {
	c := NewPyannoteClient(&conf.DiarizerConfig{
		BaseURL:   "http://sidecar.test",
		Timeout:   5,
		AuthToken: "secret",
	})
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://sidecar.test/diarize",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"segments": []map[string]any{}, "num_speakers": 0,
			})
		})

	_, err := c.Diarize(context.Background(), Request{Audio: []byte("wav")})
	require.NoError(t, err)
}

func TestPyannoteDefaults(t *testing.T) {
	c := NewPyannoteClient(&conf.DiarizerConfig{})
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultTimeout, c.client.Timeout)
	assert.Equal(t, providerName, c.Name())
}
