package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movr/backend/internal/interfaces/http/dto"
)

type registerRequest struct {
	Email   string   `json:"email" binding:"required,email"`
	Battery *int     `json:"battery" binding:"required"`
	Phones  []string `json:"phone_numbers" binding:"omitempty,dive,max=5"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/register", func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postRegister(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	if w.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHandleValidationError(t *testing.T) {
	router := validationRouter()

	t.Run("field errors use json names", func(t *testing.T) {
		w, resp := postRegister(t, router, `{"email":"not-an-email","phone_numbers":["123456789"]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-7", resp.Error.RequestID)

		fields := map[string]string{}
		for _, f := range resp.Error.Fields {
			fields[f.Field] = f.Message
		}
		assert.Equal(t, "Invalid email format", fields["email"])
		assert.Equal(t, "This field is required", fields["battery"])
		assert.Equal(t, "Must be at most 5 characters", fields["phone_numbers[0]"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := postRegister(t, router, `{"email":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})

	t.Run("valid body passes", func(t *testing.T) {
		w, _ := postRegister(t, router, `{"email":"a@b.co","battery":50}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Count    int    `validate:"min=3"`
		UUID     string `validate:"uuid"`
		OneOf    string `validate:"oneof=scooter bike"`
		GTE      int    `validate:"gte=10"`
	}

	err := validator.New().Struct(sample{Min: "ab", UUID: "nope", OneOf: "car"})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)

	got := map[string]string{}
	for _, e := range errs {
		got[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be at least 3", got["Count"])
	assert.Equal(t, "Invalid UUID format", got["UUID"])
	assert.Equal(t, "Must be one of: scooter bike", got["OneOf"])
	assert.Equal(t, "Must be greater than or equal to 10", got["GTE"])
}
