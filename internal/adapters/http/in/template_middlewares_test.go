package in

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateIDPathParameter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		pathParam      string
		expectedStatus int
		expectError    bool
	}{
		{
			name:           "Success - Valid UUID",
			pathParam:      uuid.New().String(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Success - Built-in id",
			pathParam:      "built_in:standard",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Error - Invalid UUID format",
			pathParam:      "invalid-uuid-format",
			expectedStatus: http.StatusBadRequest,
			expectError:    true,
		},
		{
			name:           "Error - Partial UUID",
			pathParam:      "550e8400-e29b-41d4",
			expectedStatus: http.StatusBadRequest,
			expectError:    true,
		},
		{
			name:           "Success - UUID with uppercase letters",
			pathParam:      "550E8400-E29B-41D4-A716-446655440000",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New(fiber.Config{
				DisableStartupMessage: true,
			})

			app.Get("/test/:id", ParseTemplateIDPathParameter, func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test/"+tt.pathParam, nil)
			resp, err := app.Test(req)

			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectError {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)

				var errorResponse map[string]any

				require.NoError(t, json.Unmarshal(body, &errorResponse))
				assert.Contains(t, errorResponse, "code")
			}
		})
	}
}
