// Drives walk-in, assign, open, complete and reject traffic against a
// running frontdesk (and the stub appointment service, which stands in for
// the doctor-side UI) to exercise the whole queue lifecycle under load.
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
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type SimConfig struct {
	FrontdeskURL string
	StubURL      string
	StubToken    string
	Campus       string
	Duration     time.Duration
	Workers      int
}

type OperationMetrics struct {
	Total    int64
	Success  int64
	Refused  int64
	Error    int64
}

func (om *OperationMetrics) Record(status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err != nil || status >= 500:
		atomic.AddInt64(&om.Error, 1)
	case status >= 400:
		atomic.AddInt64(&om.Refused, 1)
	default:
		atomic.AddInt64(&om.Success, 1)
	}
}

type Metrics struct {
	Intake   OperationMetrics
	Assign   OperationMetrics
	Open     OperationMetrics
	Complete OperationMetrics
	Reject   OperationMetrics
	Read     OperationMetrics
}

type queueView struct {
	Queue []struct {
		Identity string `json:"identity"`
		Status   string `json:"status"`
	} `json:"queue"`
}

type doctorsView struct {
	Doctors []struct {
		ID string `json:"doctor_id"`
	} `json:"doctors"`
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	log.Printf("config: frontdesk=%s stub=%s duration=%s workers=%d",
		cfg.FrontdeskURL, cfg.StubURL, cfg.Duration, cfg.Workers)

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		FrontdeskURL: getEnv("SIM_FRONTDESK_URL", "http://localhost:8080"),
		StubURL:      getEnv("SIM_STUB_URL", "http://localhost:9090"),
		StubToken:    getEnv("SIM_STUB_TOKEN", "simulator"),
		Campus:       getEnv("SIM_CAMPUS", "main"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 4),
	}
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("running for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch r := rng.Float64(); {
		case r < 0.30:
			s.doIntake(ctx)
		case r < 0.50:
			s.doAssign(ctx, rng)
		case r < 0.65:
			s.doOpen(ctx, rng)
		case r < 0.80:
			s.doComplete(ctx, rng)
		case r < 0.88:
			s.doReject(ctx, rng)
		default:
			s.doRead(ctx)
		}

		time.Sleep(time.Duration(rng.Intn(400)) * time.Millisecond)
	}
}

func (s *Simulator) doIntake(ctx context.Context) {
	body := map[string]string{
		"email":  strings.ToLower(gofakeit.Username()) + "@" + gofakeit.DomainName(),
		"reason": gofakeit.Sentence(4),
	}
	status, err := s.postJSON(ctx, s.config.FrontdeskURL+"/queue/intake", body)
	s.metrics.Intake.Record(status, err)
}

func (s *Simulator) doAssign(ctx context.Context, rng *rand.Rand) {
	email, ok := s.pickByStatus(ctx, "pending", rng)
	if !ok {
		return
	}
	doctorID, ok := s.pickDoctor(ctx, rng)
	if !ok {
		return
	}

	body := map[string]any{
		"patient_email": email,
		"doctor_id":     doctorID,
		"weight_kg":     55 + rng.Float64()*50,
		"temperature_f": 96 + rng.Float64()*6,
	}
	status, err := s.postJSON(ctx, s.config.FrontdeskURL+"/queue/assign", body)
	s.metrics.Assign.Record(status, err)
}

// doOpen plays the doctor picking up an assigned case, which only the stub
// service exposes.
func (s *Simulator) doOpen(ctx context.Context, rng *rand.Rand) {
	email, ok := s.pickByStatus(ctx, "assigned", rng)
	if !ok {
		return
	}

	url := s.config.StubURL + "/api/v1/queue/" + encodeEmail(email) + "/open"
	status, err := s.postStub(ctx, url)
	s.metrics.Open.Record(status, err)
}

func (s *Simulator) doComplete(ctx context.Context, rng *rand.Rand) {
	email, ok := s.pickByStatus(ctx, "appointed", rng)
	if !ok {
		return
	}
	body := map[string]string{"patient_email": email}
	status, err := s.postJSON(ctx, s.config.FrontdeskURL+"/queue/complete", body)
	s.metrics.Complete.Record(status, err)
}

func (s *Simulator) doReject(ctx context.Context, rng *rand.Rand) {
	email, ok := s.pickByStatus(ctx, "pending", rng)
	if !ok {
		return
	}
	body := map[string]string{"patient_email": email}
	status, err := s.postJSON(ctx, s.config.FrontdeskURL+"/queue/reject", body)
	s.metrics.Reject.Record(status, err)
}

func (s *Simulator) doRead(ctx context.Context) {
	var view queueView
	status, err := s.getJSON(ctx, s.config.FrontdeskURL+"/queue", &view)
	s.metrics.Read.Record(status, err)
}

func (s *Simulator) pickByStatus(ctx context.Context, wanted string, rng *rand.Rand) (string, bool) {
	var view queueView
	if status, err := s.getJSON(ctx, s.config.FrontdeskURL+"/queue", &view); err != nil || status >= 400 {
		return "", false
	}

	var candidates []string
	for _, a := range view.Queue {
		if a.Status == wanted {
			candidates = append(candidates, a.Identity)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[rng.Intn(len(candidates))], true
}

func (s *Simulator) pickDoctor(ctx context.Context, rng *rand.Rand) (string, bool) {
	var view doctorsView
	if status, err := s.getJSON(ctx, s.config.FrontdeskURL+"/doctors", &view); err != nil || status >= 400 {
		return "", false
	}
	if len(view.Doctors) == 0 {
		return "", false
	}
	return view.Doctors[rng.Intn(len(view.Doctors))].ID, true
}

func (s *Simulator) getJSON(ctx context.Context, url string, dest any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if dest != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return resp.StatusCode, err
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

func (s *Simulator) postJSON(ctx context.Context, url string, body any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (s *Simulator) postStub(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+s.config.StubToken)
	req.Header.Set("X-Campus", s.config.Campus)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// encodeEmail applies the appointment service's path encoding: dots in the
// domain part become commas.
func encodeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ReplaceAll(email[at+1:], ".", ",")
}

func (s *Simulator) PrintReport() {
	fmt.Println()
	fmt.Println("=== simulation report ===")
	printOp("intake", &s.metrics.Intake)
	printOp("assign", &s.metrics.Assign)
	printOp("open", &s.metrics.Open)
	printOp("complete", &s.metrics.Complete)
	printOp("reject", &s.metrics.Reject)
	printOp("read", &s.metrics.Read)
}

func printOp(name string, om *OperationMetrics) {
	fmt.Printf("%-10s total=%-5d success=%-5d refused=%-5d error=%d\n",
		name,
		atomic.LoadInt64(&om.Total),
		atomic.LoadInt64(&om.Success),
		atomic.LoadInt64(&om.Refused),
		atomic.LoadInt64(&om.Error),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
