package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetricProvider_PrometheusScrape(t *testing.T) {
	ctx := context.Background()
	mp, reg, err := NewMetricProvider(ctx, WithServiceName("token-deployer"), WithPrometheus())
	if err != nil {
		t.Fatalf("NewMetricProvider() error = %v", err)
	}
	defer mp.Shutdown(ctx)

	counter, err := mp.Meter("test").Int64Counter("probe_passes_total")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(ctx, 3)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "probe_passes_total") {
		t.Errorf("expected counter in scrape output, got:\n%s", body)
	}
}
