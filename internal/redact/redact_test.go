package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "ssn",
			input: "my ssn is 123-45-6789 ok",
			want:  "my ssn is [SSN_REDACTED] ok",
		},
		{
			name:  "credit card with dashes",
			input: "card 4111-1111-1111-1111 please",
			want:  "card [CC_REDACTED] please",
		},
		{
			name:  "credit card no separators",
			input: "card 4111111111111111 please",
			want:  "card [CC_REDACTED] please",
		},
		{
			name:  "email address",
			input: "reach me at jane.doe@example.com thanks",
			want:  "reach me at [EMAIL_REDACTED] thanks",
		},
		{
			name:  "no pii",
			input: "remind me to call mom tomorrow",
			want:  "remind me to call mom tomorrow",
		},
		{
			name:  "multiple kinds in one string",
			input: "ssn 123-45-6789 email a@b.com card 4111 1111 1111 1111",
			want:  "ssn [SSN_REDACTED] email [EMAIL_REDACTED] card [CC_REDACTED]",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}
