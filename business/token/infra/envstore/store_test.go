package envstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fd1az/token-deployer/internal/apperror"
)

func TestStore_Set(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("# wallet\nMAIN_PRIVATE_KEY=abc\nCONTRACT_ADDRESS=0xold\nRPC_URL=https://a\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if err := s.Set("CONTRACT_ADDRESS", "0xnew"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, _ := os.ReadFile(path)
	want := "# wallet\nMAIN_PRIVATE_KEY=abc\nCONTRACT_ADDRESS=0xnew\nRPC_URL=https://a\n"
	if string(got) != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestStore_SetFailure(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing-dir", ".env"))
	if err := s.Set("CONTRACT_ADDRESS", "0x1"); !errors.Is(err, apperror.New(apperror.CodeConfigStoreFailed)) {
		t.Errorf("Set() error = %v, want CONFIG_STORE_FAILED", err)
	}
}
