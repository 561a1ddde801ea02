package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const (
	SourcePending   = "pending"
	SourceAssigned  = "assigned"
	SourceAppointed = "appointed"
)

// SourceWarning marks one list retrieval that failed this cycle. The source
// degrades to empty; the view renders without it until the next refresh.
type SourceWarning struct {
	Source string `json:"source"`
	Msg    string `json:"msg"`
}

// FetchResult holds the three raw collections plus per-source outcomes.
type FetchResult struct {
	Pending   []Appointment
	Assigned  []Appointment
	Appointed []Appointment
	Warnings  []SourceWarning
}

// OK reports whether every source fetched cleanly.
func (r FetchResult) OK() bool {
	return len(r.Warnings) == 0
}

// Fetcher retrieves the three partial queue views. The reads are independent,
// so they are issued concurrently and a failure in one never blocks the
// other two.
type Fetcher struct {
	client Client
	logger *zap.Logger
}

func NewFetcher(client Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

func (f *Fetcher) FetchAll(ctx context.Context) FetchResult {
	type sourceFetch struct {
		name string
		call func(context.Context) ([]Appointment, error)
		dest *[]Appointment
	}

	var res FetchResult
	fetches := []sourceFetch{
		{SourcePending, f.client.ListPending, &res.Pending},
		{SourceAssigned, f.client.ListAssigned, &res.Assigned},
		{SourceAppointed, f.client.ListAppointed, &res.Appointed},
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, sf := range fetches {
		wg.Add(1)
		go func(sf sourceFetch) {
			defer wg.Done()
			records, err := sf.call(ctx)
			if err != nil {
				f.logger.Warn("queue source fetch failed",
					zap.String("source", sf.name),
					zap.Error(err),
				)
				mu.Lock()
				res.Warnings = append(res.Warnings, SourceWarning{Source: sf.name, Msg: err.Error()})
				mu.Unlock()
				return
			}
			*sf.dest = records
		}(sf)
	}
	wg.Wait()

	return res
}
