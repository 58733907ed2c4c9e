package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"valid international", "6281234567890", false},
		{"valid with plus", "+6281234567890", false},
		{"valid short", "628123", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"leading zero", "081234567890", true},
		{"contains letters", "62812abc", true},
		{"too short", "62812", true},
		{"too long", "62812345678901234567", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateChatJID(t *testing.T) {
	assert.NoError(t, ValidateChatJID("6281234567890@s.whatsapp.net"))
	assert.NoError(t, ValidateChatJID("+6281234567890"))
	assert.Error(t, ValidateChatJID(""))
	assert.Error(t, ValidateChatJID("   "))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://crm.example.com/hooks/wa"))
	assert.NoError(t, ValidateURL("http://10.0.0.5:8080/webhook"))
	assert.Error(t, ValidateURL(""))
	assert.Error(t, ValidateURL("not a url"))
}

func TestValidateMessageID(t *testing.T) {
	assert.NoError(t, ValidateMessageID("3EB0C127D1D8AE4D3E9F"))
	assert.Error(t, ValidateMessageID(""))
	assert.Error(t, ValidateMessageID("  "))

	long := make([]byte, 129)
	for i := range long {
		long[i] = 'A'
	}
	assert.Error(t, ValidateMessageID(string(long)))
}

func TestValidateEventList(t *testing.T) {
	known := map[string]bool{
		"message.received": true,
		"session.paired":   true,
	}

	assert.NoError(t, ValidateEventList(nil, known))
	assert.NoError(t, ValidateEventList([]string{}, known))
	assert.NoError(t, ValidateEventList([]string{"message.received"}, known))
	assert.NoError(t, ValidateEventList([]string{"message.received", "session.paired"}, known))

	assert.EqualError(t, ValidateEventList([]string{"message.bogus"}, known), "unknown event type: message.bogus")
	assert.EqualError(t, ValidateEventList([]string{""}, known), "event name cannot be empty")
}
