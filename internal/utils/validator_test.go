package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signUpInput struct {
	Email       string   `validate:"required,email"`
	Password    string   `validate:"required,password"`
	DisplayName string   `validate:"required,display_name"`
	IdeaID      string   `validate:"omitempty,identifier"`
	Tags        []string `validate:"max=10,dive,tag"`
}

func TestValidateStruct(t *testing.T) {
	valid := signUpInput{
		Email:       "buyer@example.com",
		Password:    "secret123",
		DisplayName: "김구매",
		IdeaID:      "550e8400-e29b-41d4-a716-446655440000",
		Tags:        []string{"앱", "AI"},
	}
	assert.NoError(t, ValidateStruct(&valid))

	invalid := valid
	invalid.Password = "onlyletters"
	invalid.DisplayName = "x"
	invalid.IdeaID = "not-an-id"
	invalid.Tags = []string{" padded "}

	errs := GetValidationErrors(ValidateStruct(&invalid))
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Tag
	}

	assert.Equal(t, "password", fields["password"])
	assert.Equal(t, "display_name", fields["displayname"])
	assert.Equal(t, "identifier", fields["ideaid"])
	assert.Equal(t, "tag", fields["tags[0]"])
}

func TestGetValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, GetValidationErrors(nil))
	assert.Empty(t, GetValidationErrors(assert.AnError))
}
