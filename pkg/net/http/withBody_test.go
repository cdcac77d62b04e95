package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createPayload struct {
	BaseName string  `json:"baseName" validate:"required"`
	Width    float64 `json:"width" validate:"required,gt=0"`
	Units    string  `json:"units" validate:"required,oneof=mm in"`
}

func TestWithBody_DecodesValidPayload(t *testing.T) {
	t.Parallel()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	var captured *createPayload

	app.Post("/test", WithBody(&createPayload{}, func(p any, c *fiber.Ctx) error {
		captured = p.(*createPayload)

		return c.SendStatus(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"baseName":"My Labels","width":50.8,"units":"mm"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, captured)
	assert.Equal(t, "My Labels", captured.BaseName)
	assert.Equal(t, 50.8, captured.Width)
}

func TestWithBody_RejectsBadPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedErrors []string
	}{
		{
			name:           "Empty body",
			body:           "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Literal null",
			body:           "null",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed JSON",
			body:           `{"baseName":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing required fields",
			body:           `{"width":50.8}`,
			expectedStatus: http.StatusBadRequest,
			expectedErrors: []string{
				"baseName is a required field",
				"units is a required field",
			},
		},
		{
			name:           "Value outside oneof set",
			body:           `{"baseName":"X","width":50.8,"units":"cm"}`,
			expectedStatus: http.StatusBadRequest,
			expectedErrors: []string{
				"units must be one of [mm in]",
			},
		},
		{
			name:           "Non-positive dimension",
			body:           `{"baseName":"X","width":-1,"units":"mm"}`,
			expectedStatus: http.StatusBadRequest,
			expectedErrors: []string{
				"width must be greater than 0",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New(fiber.Config{
				DisableStartupMessage: true,
			})

			app.Post("/test", WithBody(&createPayload{}, func(p any, c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var errorResponse map[string]any

			require.NoError(t, json.Unmarshal(body, &errorResponse))
			assert.Contains(t, errorResponse, "code")

			for _, expected := range tt.expectedErrors {
				assert.Contains(t, string(body), expected)
			}
		})
	}
}
