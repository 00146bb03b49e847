package usercontext

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		assert.False(t, IsLoggedIn(c))
		assert.Equal(t, uint(0), GetUserID(c))
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/user", func(c *fiber.Ctx) error {
		Set(c, UserContext{UserID: 5, Username: "ada", IsLoggedIn: true, IsAdmin: true, Plan: "premium"})
		assert.True(t, IsLoggedIn(c))
		assert.True(t, IsAdmin(c))
		assert.Equal(t, uint(5), GetUserID(c))
		assert.Equal(t, "ada", GetUsername(c))
		assert.Equal(t, uint(5), c.Locals(KeyUserID))
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, path := range []string{"/anon", "/user"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
}
