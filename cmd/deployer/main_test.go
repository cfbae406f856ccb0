package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fd1az/token-deployer/internal/logger"
)

func TestFormatRecord(t *testing.T) {
	r := logger.Record{
		Time:    time.Now(),
		Level:   logger.LevelInfo,
		Message: "token deployed",
		Attributes: map[string]any{
			"tx":       "0x01",
			"address":  "0xabc",
			"trace_id": "ignored",
		},
	}

	got := formatRecord(r)
	want := "token deployed address=0xabc tx=0x01"
	if got != want {
		t.Errorf("formatRecord() = %q, want %q", got, want)
	}
}

func TestRunCLI_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr string
	}{
		{"unknown action", options{action: "mint"}, "unknown action"},
		{"send without recipient", options{action: actionSendNative, amount: "1"}, "-to and -amount"},
		{"token send without amount", options{action: actionSendToken, to: "0xabc"}, "-to and -amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runCLI(context.Background(), nil, nil, tt.opts, &out)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if out.Len() != 0 {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}
