package credentials

import (
	"encoding/hex"
	"testing"
)

func TestEnvKeyProvider(t *testing.T) {
	t.Setenv("TEST_ROSTER_KEY", testEncryptionKey)

	provider := NewEnvKeyProvider("TEST_ROSTER_KEY")
	key, err := provider.GetKey()
	if err != nil {
		t.Fatalf("GetKey() error = %v", err)
	}
	if len(key) != keyLength {
		t.Errorf("key length = %d, want %d", len(key), keyLength)
	}

	expected, _ := hex.DecodeString(testEncryptionKey)
	if string(key) != string(expected) {
		t.Error("key does not match env value")
	}
}

func TestEnvKeyProvider_Missing(t *testing.T) {
	provider := NewEnvKeyProvider("TEST_ROSTER_KEY_UNSET")
	if _, err := provider.GetKey(); err == nil {
		t.Error("GetKey() should fail for unset variable")
	}
}

func TestEnvKeyProvider_InvalidKey(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not hex", "zzzz"},
		{"wrong length", "abcdef"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_ROSTER_KEY", tc.value)
			provider := NewEnvKeyProvider("TEST_ROSTER_KEY")
			if _, err := provider.GetKey(); err == nil {
				t.Error("GetKey() should fail")
			}
		})
	}
}

func TestPassphraseKeyProvider(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	if len(salt) != 16 {
		t.Errorf("salt length = %d, want 16", len(salt))
	}

	provider := NewPassphraseKeyProvider("correct horse battery staple", salt)
	key, err := provider.GetKey()
	if err != nil {
		t.Fatalf("GetKey() error = %v", err)
	}
	if len(key) != keyLength {
		t.Errorf("key length = %d, want %d", len(key), keyLength)
	}

	// Same passphrase and salt derive the same key.
	again, err := provider.GetKey()
	if err != nil {
		t.Fatalf("GetKey() second call error = %v", err)
	}
	if string(key) != string(again) {
		t.Error("derivation is not deterministic")
	}

	// A different salt derives a different key.
	otherSalt, _ := GenerateSalt()
	other, err := NewPassphraseKeyProvider("correct horse battery staple", otherSalt).GetKey()
	if err != nil {
		t.Fatalf("GetKey() with new salt error = %v", err)
	}
	if string(key) == string(other) {
		t.Error("different salts should derive different keys")
	}
}

func TestPassphraseKeyProvider_MissingInputs(t *testing.T) {
	if _, err := NewPassphraseKeyProvider("", []byte("salt")).GetKey(); err == nil {
		t.Error("GetKey() should fail without passphrase")
	}
	if _, err := NewPassphraseKeyProvider("pass", nil).GetKey(); err == nil {
		t.Error("GetKey() should fail without salt")
	}
}

func TestGetDefaultKeyProvider_PrefersEnv(t *testing.T) {
	t.Setenv("ROSTER_ENCRYPTION_KEY", testEncryptionKey)

	provider, err := GetDefaultKeyProvider()
	if err != nil {
		t.Fatalf("GetDefaultKeyProvider() error = %v", err)
	}
	if _, ok := provider.(*EnvKeyProvider); !ok {
		t.Errorf("provider = %T, want *EnvKeyProvider", provider)
	}
}
