package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type caseInput struct {
	Title    string `validate:"required,max=200"`
	Priority string `validate:"case_priority"`
	Status   string `validate:"omitempty,case_status"`
}

type userInput struct {
	Email string `validate:"required,email"`
	Role  string `validate:"user_role"`
}

type fileInput struct {
	Name string `validate:"file_name"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   any
		wantErr string
	}{
		{name: "valid_case", input: caseInput{Title: "Broken printer", Priority: "high", Status: "in-progress"}},
		{name: "missing_title", input: caseInput{Priority: "low"}, wantErr: "title is required"},
		{name: "bad_priority", input: caseInput{Title: "x", Priority: "urgent"}, wantErr: "priority must be one of low, medium, high"},
		{name: "bad_status", input: caseInput{Title: "x", Priority: "low", Status: "done"}, wantErr: "status must be one of"},
		{name: "valid_user", input: userInput{Email: "a@b.co", Role: "admin"}},
		{name: "case_manager_is_not_a_user_role", input: userInput{Email: "a@b.co", Role: "case_manager"}, wantErr: "role must be one of user, admin"},
		{name: "bad_email", input: userInput{Email: "nope", Role: "user"}, wantErr: "email must be a valid email address"},
		{name: "valid_file", input: fileInput{Name: "report 2024.pdf"}},
		{name: "file_with_path", input: fileInput{Name: "../etc/passwd"}, wantErr: "name is not a valid file name"},
		{name: "dot_file_name", input: fileInput{Name: ".."}, wantErr: "name is not a valid file name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("closed", "case_status"))
	assert.ErrorIs(t, v.Var("archived", "case_status"), ErrValidation)
}
