package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordsScore(t *testing.T) {
	kw := DefaultKeywords()
	tests := []struct {
		name  string
		line  string
		value string
		want  int
	}{
		{"no keywords", "NAME=bob", "bob", 0},
		{"case insensitive", "DB_PASSWORD=x", "x", 1},
		{"several keywords", "private_ssh_token = abc", "abc", 3},
		{"keyword in value only", "X=", "mysecretvalue", 1},
		{"passwd spelling", "PASSWD=abc", "abc", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kw.Score(tt.line, tt.value))
		})
	}
}

func TestNewKeywordsNormalises(t *testing.T) {
	kw := NewKeywords(" Vault ", "", "KMS")
	assert.Equal(t, Keywords{"vault", "kms"}, kw)
	assert.Equal(t, 2, kw.Score("VAULT_KMS_ID=1", ""))
}
