package handler

import (
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	for _, s := range []string{"a@b.co", "jo.doe+tag@example.com"} {
		assert.True(t, validEmail(s), "%q should be accepted", s)
	}
	for _, s := range []string{"", "nobody", "@example.com", "trailing@", "has space@example.com"} {
		assert.False(t, validEmail(s), "%q should be rejected", s)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"active", "inactive", "suspended", "blocked"} {
		assert.True(t, validStatus(s))
	}
	assert.False(t, validStatus("deleted"))
	assert.False(t, validStatus(""))
	assert.False(t, validStatus("Active"))
}

func TestPageMetaClampsInputs(t *testing.T) {
	assert.Equal(t, echo.Map{"page": 2, "limit": 25, "total_count": 99}, pageMeta(2, 25, 99))
	// Out-of-range values fall back to the defaults.
	assert.Equal(t, echo.Map{"page": 1, "limit": 10, "total_count": 0}, pageMeta(0, 0, 0))
	assert.Equal(t, echo.Map{"page": 1, "limit": 10, "total_count": 5}, pageMeta(-3, 1000, 5))
}
