package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
	}{
		{"dev", true},
		{"prod", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, tt.env)
			l.Debug("cache sweep", "evicted", 3)
			assert.Equal(t, tt.wantDebug, buf.Len() > 0)
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "prod").Info("saved collection", "collection", "inventory", "rows", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "saved collection", rec["msg"])
	assert.Equal(t, "inventory", rec["collection"])
	assert.Equal(t, 2.0, rec["rows"])
}
