package validator

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "title: is required", New("title", "is required").Error())
	assert.Equal(t, "bad input", New("", "bad input").Error())

	wrapped := fmt.Errorf("submit: %w", New("title", "is required"))
	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsValidationError(errors.New("plain")))
}

func TestValidatePhoto(t *testing.T) {
	small := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"valid image", small, false},
		{"not a data url", "https://example.com/a.png", true},
		{"wrong media type", "data:text/plain;base64,aGVsbG8=", true},
		{"not base64", "data:image/png,raw", true},
		{"corrupt payload", "data:image/png;base64,!!!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoto(tt.input)
			if tt.wantErr {
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePhotoRejectsLargeImages(t *testing.T) {
	big := make([]byte, MaxPhotoBytes+1)
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(big)

	err := ValidatePhoto(dataURL)
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), "under 5MB"))
	}
}

func TestValidateCoordinates(t *testing.T) {
	lat, lng := 28.61, 77.20
	badLat := 95.0

	assert.NoError(t, ValidateCoordinates(nil, nil))
	assert.NoError(t, ValidateCoordinates(&lat, &lng))
	assert.Error(t, ValidateCoordinates(&lat, nil))
	assert.Error(t, ValidateCoordinates(&badLat, &lng))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("secret1", "secret1"))

	err := ValidatePassword("secret1", "secret2")
	assert.EqualError(t, err, "confirmPassword: Passwords do not match")

	err = ValidatePassword("abc", "abc")
	assert.EqualError(t, err, "password: Password must be at least 6 characters")
}

func TestRegisterBindings(t *testing.T) {
	RegisterBindings()
	RegisterBindings()

	type req struct {
		Priority string `binding:"required,priority"`
		Status   string `binding:"omitempty,status"`
		Role     string `binding:"omitempty,role"`
	}

	assert.NoError(t, binding.Validator.ValidateStruct(&req{Priority: "High", Status: "In Progress", Role: "staff"}))
	assert.Error(t, binding.Validator.ValidateStruct(&req{Priority: "Urgent"}))
	assert.Error(t, binding.Validator.ValidateStruct(&req{Priority: "Low", Status: "Closed"}))
	assert.Error(t, binding.Validator.ValidateStruct(&req{Priority: "Low", Role: "mayor"}))
}

func TestFromBinding(t *testing.T) {
	type req struct {
		Title    string `json:"title" binding:"required"`
		Priority string `json:"priority" binding:"required"`
	}

	err := binding.Validator.ValidateStruct(&req{Priority: "Low"})
	ve := FromBinding(err, "Please fill in all required fields")
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, "Please fill in all required fields", ve.Message)

	wrapped := fmt.Errorf("bind: %w", binding.Validator.ValidateStruct(&req{Title: "x"}))
	assert.Equal(t, "priority", FromBinding(wrapped, "missing").Field)

	ve = FromBinding(errors.New("unexpected EOF"), "invalid body")
	assert.Empty(t, ve.Field)
	assert.Equal(t, "invalid body", ve.Message)
}
