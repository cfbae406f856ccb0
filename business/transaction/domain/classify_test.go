package domain

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorKind
	}{
		{"nonce too low", KindNonceTooLow},
		{"Nonce Too Low: next nonce 5, tx nonce 4", KindNonceTooLow},
		{"nonce has already been used", KindNonceTooLow},
		{"NONCE_EXPIRED", KindNonceTooLow},
		{"replacement transaction underpriced", KindFeeTooLow},
		{"transaction underpriced", KindFeeTooLow},
		{"fee too low", KindFeeTooLow},
		{"intrinsic gas too low", KindFeeTooLow},
		{"max fee per gas less than block base fee: address 0x..", KindFeeTooLow},
		{"502 Bad Gateway", KindTransientTransport},
		{"bad gateway", KindTransientTransport},
		{"unexpected status 502 from rpc.example", KindTransientTransport},
		{"http: 502", KindTransientTransport},
		{"insufficient funds for gas * price + value: address 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 have 9502000000000000 want 10000000000000000", KindOther},
		{"execution reverted: tx 0xab502cd", KindOther},
		{"dial tcp: lookup rpc.example: no such host", KindTransientTransport},
		{"getaddrinfo ENOTFOUND rpc.example", KindTransientTransport},
		{"insufficient funds for gas * price + value", KindOther},
		{"execution reverted", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := Classify(errors.New(tt.msg)); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.msg, got, tt.want)
			}
		})
	}
}

func TestClassify_WrappedAndNil(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", errors.New("nonce too low"))
	if got := Classify(wrapped); got != KindNonceTooLow {
		t.Errorf("wrapped = %s", got)
	}
	if got := Classify(nil); got != KindOther {
		t.Errorf("nil = %s", got)
	}
}

func TestBumpGasPrice(t *testing.T) {
	tests := []struct {
		price, pct, want int64
	}{
		{1_000_000_000, 20, 1_200_000_000},
		{7, 20, 8}, // 8.4 truncates
		{0, 20, 0},
		{100, 0, 100},
	}
	for _, tt := range tests {
		got := BumpGasPrice(big.NewInt(tt.price), tt.pct)
		if got.Int64() != tt.want {
			t.Errorf("BumpGasPrice(%d, %d) = %s, want %d", tt.price, tt.pct, got, tt.want)
		}
	}
}
