package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env       string
		debug     bool
		jsonLines bool
	}{
		{env: "local", debug: true, jsonLines: false},
		{env: "dev", debug: true, jsonLines: true},
		{env: "prod", debug: false, jsonLines: true},
		{env: "неизвестное", debug: false, jsonLines: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.env, &buf)

			assert.Equal(t, tt.debug, log.Enabled(context.Background(), slog.LevelDebug))

			log.Info("hello", slog.String("k", "v"))
			if tt.jsonLines {
				var rec map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
				assert.Equal(t, "hello", rec["msg"])
				assert.Equal(t, "v", rec["k"])
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
				assert.Contains(t, buf.String(), "k=v")
			}
		})
	}
}
