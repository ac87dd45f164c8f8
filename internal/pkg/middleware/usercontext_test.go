package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHeaderMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   uint
	}{
		{name: "valid id", header: "42", want: 42},
		{name: "missing header", header: "", want: 0},
		{name: "not a number", header: "abc", want: 0},
		{name: "zero", header: "0", want: 0},
		{name: "negative", header: "-5", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got uint
			app := fiber.New()
			app.Use(UserHeaderMiddleware())
			app.Get("/", func(c *fiber.Ctx) error {
				got = UserIDFromContext(c)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("X-App-User-ID", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, got)
		})
	}
}
