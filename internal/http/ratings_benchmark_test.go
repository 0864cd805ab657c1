package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// BenchmarkHandleCreateRating calls the handler directly so the numbers leave
// out bcrypt and routing.
func BenchmarkHandleCreateRating(b *testing.B) {
	srv, repo := buildTestServer(b)
	tour := mustCreateTour(b, repo, "Benchmark Tour")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payload := []byte(fmt.Sprintf(`{"score":4,"customerId":%d}`, i+1))
		req := httptest.NewRequest(http.MethodPost, "/tours/x/ratings", bytes.NewReader(payload))
		req = attachURLParam(req, "tourId", strconv.Itoa(tour.ID))
		rec := httptest.NewRecorder()

		srv.handleCreateRating(rec, req)
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkTopRecommendations(b *testing.B) {
	srv := newTestServer(b, testConfig(), Deps{Recommender: scenarioEngine()})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/recommendations/top?limit=3", nil)
		rec := httptest.NewRecorder()
		srv.handleTopRecommendations(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
