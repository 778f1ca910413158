package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceandrift/fishcrew/pkg/health"
)

func TestHealthGet(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		expectedCode  int
		checkResponse bool
	}{
		{
			name:          "Success GET request",
			method:        http.MethodGet,
			expectedCode:  http.StatusOK,
			checkResponse: true,
		},
		{
			name:          "Invalid POST request",
			method:        http.MethodPost,
			expectedCode:  http.StatusMethodNotAllowed,
			checkResponse: false,
		},
		{
			name:          "Invalid DELETE request",
			method:        http.MethodDelete,
			expectedCode:  http.StatusMethodNotAllowed,
			checkResponse: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			rec := httptest.NewRecorder()

			health.HealthGet()(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if !tt.checkResponse {
				return
			}

			var resp health.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "healthy", resp.Status)
			assert.Equal(t, "fishcrew-engine", resp.Service)
			assert.NotEmpty(t, resp.Timestamp)
			assert.NotEmpty(t, resp.Uptime)
			assert.NotEmpty(t, resp.GoVersion)
		})
	}
}
