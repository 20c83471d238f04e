package idgen

import (
	"strings"
	"testing"
)

func TestGenerateSecureID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		length     int
		wantErr    bool
		wantPrefix string
	}{
		{
			name:       "generate session ID",
			prefix:     "sess",
			length:     16,
			wantErr:    false,
			wantPrefix: "sess_",
		},
		{
			name:       "generate workflow ID",
			prefix:     "wf",
			length:     16,
			wantErr:    false,
			wantPrefix: "wf_",
		},
		{
			name:       "generate message ID",
			prefix:     "msg",
			length:     16,
			wantErr:    false,
			wantPrefix: "msg_",
		},
		{
			name:       "generate short ID",
			prefix:     "test",
			length:     8,
			wantErr:    false,
			wantPrefix: "test_",
		},
		{
			name:       "generate long ID",
			prefix:     "test",
			length:     32,
			wantErr:    false,
			wantPrefix: "test_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSecureID(tt.prefix, tt.length)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateSecureID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if !strings.HasPrefix(got, tt.wantPrefix) {
					t.Errorf("GenerateSecureID() = %v, want prefix %v", got, tt.wantPrefix)
				}
				expectedLen := len(tt.prefix) + 1 + tt.length
				if len(got) != expectedLen {
					t.Errorf("GenerateSecureID() length = %v, want %v", len(got), expectedLen)
				}
				suffix := got[len(tt.prefix)+1:]
				for _, char := range suffix {
					if !((char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')) {
						t.Errorf("GenerateSecureID() contains invalid character: %c", char)
					}
				}
			}
		})
	}
}

func TestGenerateSecureID_Uniqueness(t *testing.T) {
	const iterations = 10000
	seen := make(map[string]bool)

	for i := 0; i < iterations; i++ {
		id, err := GenerateSecureID("test", 16)
		if err != nil {
			t.Fatalf("GenerateSecureID() error = %v", err)
		}
		if seen[id] {
			t.Errorf("GenerateSecureID() generated duplicate ID: %v", id)
		}
		seen[id] = true
	}

	if len(seen) != iterations {
		t.Errorf("Expected %d unique IDs, got %d", iterations, len(seen))
	}
}

func TestValidateIDFormat(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		expectedPrefix string
		want           bool
	}{
		{
			name:           "valid session ID",
			id:             "sess_a3f8d2k9p1m4n7q2",
			expectedPrefix: "sess",
			want:           true,
		},
		{
			name:           "valid workflow ID",
			id:             "wf_x7y2z5w8r3t6u9v1",
			expectedPrefix: "wf",
			want:           true,
		},
		{
			name:           "wrong prefix",
			id:             "sess_a3f8d2k9p1m4n7q2",
			expectedPrefix: "wf",
			want:           false,
		},
		{
			name:           "missing underscore",
			id:             "sessa3f8d2k9p1m4n7q2",
			expectedPrefix: "sess",
			want:           false,
		},
		{
			name:           "empty suffix",
			id:             "sess_",
			expectedPrefix: "sess",
			want:           false,
		},
		{
			name:           "invalid characters (uppercase)",
			id:             "sess_A3F8D2K9P1M4N7Q2",
			expectedPrefix: "sess",
			want:           false,
		},
		{
			name:           "invalid characters (special chars)",
			id:             "sess_a3f8-d2k9-p1m4",
			expectedPrefix: "sess",
			want:           false,
		},
		{
			name:           "invalid characters (underscore in suffix)",
			id:             "sess_a3f8_d2k9",
			expectedPrefix: "sess",
			want:           false,
		},
		{
			name:           "empty ID",
			id:             "",
			expectedPrefix: "sess",
			want:           false,
		},
		{
			name:           "only prefix",
			id:             "sess",
			expectedPrefix: "sess",
			want:           false,
		},
		{
			name:           "numbers only suffix",
			id:             "test_123456789",
			expectedPrefix: "test",
			want:           true,
		},
		{
			name:           "letters only suffix",
			id:             "test_abcdefghij",
			expectedPrefix: "test",
			want:           true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateIDFormat(tt.id, tt.expectedPrefix); got != tt.want {
				t.Errorf("ValidateIDFormat(%q, %q) = %v, want %v", tt.id, tt.expectedPrefix, got, tt.want)
			}
		})
	}
}

func BenchmarkGenerateSecureID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := GenerateSecureID("sess", 16)
		if err != nil {
			b.Fatal(err)
		}
	}
}
