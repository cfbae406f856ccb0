package ethereum

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/fd1az/token-deployer/business/network/app"
	"github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/logger"
)

// stalledListener accepts connections and never answers, so a websocket
// handshake against it hangs until the dial context ends.
func stalledListener(t *testing.T) (addr string, accepted <-chan struct{}) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ch := make(chan struct{}, 1)
	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		for _, c := range conns {
			c.Close()
		}
		mu.Unlock()
	})
	return ln.Addr().String(), ch
}

func TestClientPool_SlowDialDoesNotBlockOthers(t *testing.T) {
	pool := NewClientPool(logger.Discard())
	defer pool.Close()

	addr, accepted := stalledListener(t)

	wsCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wsErr := make(chan error, 1)
	go func() {
		_, err := pool.Client(wsCtx, domain.Endpoint("ws://"+addr))
		wsErr <- err
	}()

	select {
	case <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("websocket dial never reached the listener")
	}

	start := time.Now()
	if _, err := pool.Client(context.Background(), domain.Endpoint("http://127.0.0.1:1")); err != nil {
		t.Fatalf("http Client() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("http dial waited %v behind the stalled websocket dial", elapsed)
	}

	cancel()
	select {
	case err := <-wsErr:
		if !errors.Is(err, apperror.New(apperror.CodeEndpointUnreachable)) {
			t.Errorf("ws Client() error = %v, want ENDPOINT_UNREACHABLE", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("websocket dial ignored cancellation")
	}
}

func TestClientPool_ConcurrentDialsShareClient(t *testing.T) {
	pool := NewClientPool(logger.Discard())
	defer pool.Close()

	ep := domain.Endpoint("http://127.0.0.1:1")
	clients := make([]app.Client, 8)
	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := pool.Client(context.Background(), ep)
			if err != nil {
				t.Errorf("Client() error = %v", err)
				return
			}
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for i, c := range clients {
		if c != clients[0] {
			t.Errorf("client %d differs from client 0", i)
		}
	}
}
