package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareURLForDB(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgresql://u:p@h/db", "postgresql://u:p@h/db?sslmode=disable"},
		{"postgresql://u:p@h/db?x=1", "postgresql://u:p@h/db?x=1&sslmode=disable"},
		{"postgresql://u:p@h/db?sslmode=require", "postgresql://u:p@h/db?sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, prepareURLForDB(tt.url))
		})
	}
}
