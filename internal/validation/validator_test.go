package validation

import (
	"errors"
	"strings"
	"testing"
)

type moodRequest struct {
	Mood string `json:"mood" validate:"required,min=1,max=10"`
	Page int    `json:"page" validate:"gte=1,lte=500"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		req       moodRequest
		wantField string
		wantMsg   string
	}{
		{"valid", moodRequest{Mood: "happy", Page: 1}, "", ""},
		{"missing mood", moodRequest{Page: 1}, "mood", "mood is required"},
		{"mood too long", moodRequest{Mood: strings.Repeat("x", 11), Page: 1}, "mood", "mood must be at most 10 characters"},
		{"page zero", moodRequest{Mood: "ok", Page: 0}, "page", "page must be greater than or equal to 1"},
		{"page too high", moodRequest{Mood: "ok", Page: 501}, "page", "page must be less than or equal to 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v", err)
				}
				return
			}

			var ve *RequestValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateStruct() error = %v, want *RequestValidationError", err)
			}
			if len(ve.Fields) != 1 {
				t.Fatalf("Fields = %+v, want one", ve.Fields)
			}
			if ve.Fields[0].Field != tt.wantField || ve.Fields[0].Message != tt.wantMsg {
				t.Errorf("field error = %+v, want %s: %q", ve.Fields[0], tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_JoinsMessages(t *testing.T) {
	err := ValidateStruct(&moodRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "mood is required") || !strings.Contains(got, "; page") {
		t.Errorf("Error() = %q", got)
	}
}
