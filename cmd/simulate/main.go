package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowdesk/scheduler/internal/db"
)

// Load driver for the scheduling API. Workers hammer availability reads and
// reservation holds against a deliberately small slot pool so concurrent
// acquisitions collide, which is the interesting case.
type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	ReserveRatio float64
	SlotPoolSize int
	PostgresDSN  string
}

type slotCandidate struct {
	StaffID uuid.UUID
	Start   time.Time
	End     time.Time
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}
	sorted := make([]time.Duration, len(om.latencies))
	copy(sorted, om.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	avg = sum / time.Duration(len(sorted))
	p50 = sorted[len(sorted)*50/100]
	p95 = sorted[min(len(sorted)*95/100, len(sorted)-1)]
	return avg, p50, p95
}

type Simulator struct {
	config       SimConfig
	client       *http.Client
	staffIDs     []uuid.UUID
	slots        []slotCandidate
	availability OperationMetrics
	reserve      OperationMetrics
	release      OperationMetrics

	mu     sync.Mutex
	tokens []string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
	if err := sim.loadStaff(context.Background(), pool); err != nil {
		log.Fatalf("load staff: %v", err)
	}
	pool.Close()

	sim.buildSlotPool()
	log.Printf("staff=%d slots=%d workers=%d duration=%s",
		len(sim.staffIDs), len(sim.slots), cfg.Workers, cfg.Duration)

	sim.run()
	sim.report()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     30 * time.Second,
		Workers:      16,
		ReserveRatio: 0.4,
		SlotPoolSize: 50,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	if v := os.Getenv("SIM_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid SIM_DURATION: %v", err)
		}
		cfg.Duration = d
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid SIM_WORKERS: %q", v)
		}
		cfg.Workers = n
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Simulator) loadStaff(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `SELECT id FROM staff WHERE is_active AND is_bookable`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.staffIDs = append(s.staffIDs, id)
	}
	if len(s.staffIDs) == 0 {
		return fmt.Errorf("no bookable staff found, run the seeder first")
	}
	return rows.Err()
}

// buildSlotPool generates candidate slots for tomorrow's working hours. Kept
// small relative to worker count so holds contend.
func (s *Simulator) buildSlotPool() {
	day := time.Now().AddDate(0, 0, 1)
	for len(s.slots) < s.config.SlotPoolSize {
		staffID := s.staffIDs[rand.Intn(len(s.staffIDs))]
		start := time.Date(day.Year(), day.Month(), day.Day(), 9+rand.Intn(8), 15*rand.Intn(4), 0, 0, time.UTC)
		s.slots = append(s.slots, slotCandidate{
			StaffID: staffID,
			Start:   start,
			End:     start.Add(30 * time.Minute),
		})
	}
}

func (s *Simulator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()
}

func (s *Simulator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rand.Float64()
		switch {
		case r < s.config.ReserveRatio:
			s.doReserve(ctx)
		case r < s.config.ReserveRatio+0.1:
			s.doRelease(ctx)
		default:
			s.doAvailability(ctx)
		}
	}
}

func (s *Simulator) doAvailability(ctx context.Context) {
	staffID := s.staffIDs[rand.Intn(len(s.staffIDs))]
	start := time.Now().AddDate(0, 0, 1)
	url := fmt.Sprintf("%s/staff/%s/availability?start=%s&end=%s",
		s.config.APIBaseURL, staffID,
		start.Format(time.RFC3339), start.AddDate(0, 0, 1).Format(time.RFC3339))

	began := time.Now()
	resp, err := s.get(ctx, url)
	latency := time.Since(began)
	if err != nil {
		s.availability.Record(latency, false, false)
		return
	}
	s.availability.Record(latency, resp == http.StatusOK, false)
}

func (s *Simulator) doReserve(ctx context.Context) {
	slot := s.slots[rand.Intn(len(s.slots))]
	body, _ := json.Marshal(map[string]any{
		"staff_id": slot.StaffID.String(),
		"start":    slot.Start.Format(time.RFC3339),
		"end":      slot.End.Format(time.RFC3339),
	})

	began := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/reservations", bytes.NewReader(body))
	if err != nil {
		s.reserve.Record(time.Since(began), false, false)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(began)
	if err != nil {
		s.reserve.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var created struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.Token != "" {
			s.mu.Lock()
			s.tokens = append(s.tokens, created.Token)
			s.mu.Unlock()
		}
		s.reserve.Record(latency, true, false)
	case http.StatusConflict:
		io.Copy(io.Discard, resp.Body)
		s.reserve.Record(latency, false, true)
	default:
		io.Copy(io.Discard, resp.Body)
		s.reserve.Record(latency, false, false)
	}
}

func (s *Simulator) doRelease(ctx context.Context) {
	s.mu.Lock()
	if len(s.tokens) == 0 {
		s.mu.Unlock()
		return
	}
	token := s.tokens[len(s.tokens)-1]
	s.tokens = s.tokens[:len(s.tokens)-1]
	s.mu.Unlock()

	began := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.config.APIBaseURL+"/reservations/"+token, nil)
	if err != nil {
		s.release.Record(time.Since(began), false, false)
		return
	}
	resp, err := s.client.Do(req)
	latency := time.Since(began)
	if err != nil {
		s.release.Record(latency, false, false)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	s.release.Record(latency, resp.StatusCode == http.StatusNoContent, false)
}

func (s *Simulator) get(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (s *Simulator) report() {
	print := func(name string, om *OperationMetrics) {
		avg, p50, p95 := om.Stats()
		log.Printf("%-14s total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s",
			name, om.Total, om.Success, om.Conflict, om.Error, avg, p50, p95)
	}
	log.Println("simulation complete")
	print("availability", &s.availability)
	print("reserve", &s.reserve)
	print("release", &s.release)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
