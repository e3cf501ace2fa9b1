// Command shipdocs-bench drives concurrent page and summary requests against
// a running shipping document service and records throughput and latency.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type requestResult struct {
	Success bool
	Latency time.Duration
}

// stats collects request outcomes from many workers
type stats struct {
	mu        sync.Mutex
	total     atomic.Int64
	failed    atomic.Int64
	latencies []time.Duration
}

func (s *stats) record(r requestResult) {
	s.total.Add(1)
	if !r.Success {
		s.failed.Add(1)
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, r.Latency)
	s.mu.Unlock()
}

// Report is the outcome of one run
type Report struct {
	Total      int64
	Successful int64
	Failed     int64
	Elapsed    time.Duration
	TPS        float64
	Avg        time.Duration
	P50        time.Duration
	P95        time.Duration
	Max        time.Duration
}

func (s *stats) report(elapsed time.Duration) Report {
	s.mu.Lock()
	lat := append([]time.Duration(nil), s.latencies...)
	s.mu.Unlock()
	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })

	r := Report{
		Total:      s.total.Load(),
		Failed:     s.failed.Load(),
		Successful: int64(len(lat)),
		Elapsed:    elapsed,
	}
	if elapsed > 0 {
		r.TPS = float64(r.Total) / elapsed.Seconds()
	}
	if len(lat) == 0 {
		return r
	}
	var sum time.Duration
	for _, l := range lat {
		sum += l
	}
	r.Avg = sum / time.Duration(len(lat))
	r.P50 = percentile(lat, 50)
	r.P95 = percentile(lat, 95)
	r.Max = lat[len(lat)-1]
	return r
}

// percentile expects sorted input
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted)*p+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// targets expands order keys into the endpoints a worker cycles through
func targets(baseURL string, keys []string, view string) []string {
	var out []string
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out,
			fmt.Sprintf("%s/orders/%s/pages?view=%s", baseURL, k, view),
			fmt.Sprintf("%s/orders/%s/summary?view=%s", baseURL, k, view),
		)
	}
	return out
}

func worker(ctx context.Context, client *http.Client, urls []string, offset int, s *stats, wg *sync.WaitGroup) {
	defer wg.Done()
	for i := offset; ctx.Err() == nil; i++ {
		u := urls[i%len(urls)]
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			s.record(requestResult{})
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() == nil {
				s.record(requestResult{})
			}
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		s.record(requestResult{Success: resp.StatusCode < 400, Latency: time.Since(start)})
	}
}

// run drives workers against urls until duration elapses
func run(urls []string, workers int, duration time.Duration) Report {
	client := &http.Client{Timeout: 30 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	s := &stats{}
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(ctx, client, urls, i, s, &wg)
	}
	wg.Wait()
	return s.report(time.Since(start))
}

func writeCSV(path string, workers int, duration time.Duration, r Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Write([]string{"Workers", "Duration_s", "Total_Requests", "Successful", "Failed", "TPS", "Avg_Latency_ms", "P50_ms", "P95_ms", "Max_ms"})
	ms := func(d time.Duration) string { return fmt.Sprintf("%.2f", float64(d.Microseconds())/1000) }
	w.Write([]string{
		fmt.Sprint(workers),
		fmt.Sprint(int(duration.Seconds())),
		fmt.Sprint(r.Total),
		fmt.Sprint(r.Successful),
		fmt.Sprint(r.Failed),
		fmt.Sprintf("%.2f", r.TPS),
		ms(r.Avg), ms(r.P50), ms(r.P95), ms(r.Max),
	})
	w.Flush()
	return w.Error()
}

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:6000", "Service base URL")
	orders := flag.String("orders", "", "Comma-separated order keys, e.g. 4521-02,4522-00")
	view := flag.String("view", "ALL", "Truck view to request")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	recordsDir := flag.String("records", "./records", "Directory for CSV results")
	flag.Parse()

	urls := targets(strings.TrimRight(*baseURL, "/"), strings.Split(*orders, ","), *view)
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "at least one order key is required (-orders)")
		os.Exit(2)
	}

	fmt.Println("========================================")
	fmt.Println("   SHIPPING DOCUMENT BENCHMARK")
	fmt.Println("========================================")
	fmt.Printf("URL:       %s\n", *baseURL)
	fmt.Printf("Endpoints: %d\n", len(urls))
	fmt.Printf("Workers:   %d\n", *workers)
	fmt.Printf("Duration:  %v\n", *duration)
	fmt.Println("========================================")

	r := run(urls, *workers, *duration)

	fmt.Printf("Total Requests:    %d\n", r.Total)
	fmt.Printf("Successful:        %d\n", r.Successful)
	fmt.Printf("Failed:            %d\n", r.Failed)
	fmt.Printf("Throughput (TPS):  %.2f\n", r.TPS)
	fmt.Printf("Avg Latency:       %v\n", r.Avg)
	fmt.Printf("P50 / P95 / Max:   %v / %v / %v\n", r.P50, r.P95, r.Max)

	if err := os.MkdirAll(*recordsDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *recordsDir, err)
		os.Exit(1)
	}
	name := filepath.Join(*recordsDir, fmt.Sprintf("bench_%s_w%d.csv", time.Now().Format("2006-01-02_15-04-05"), *workers))
	if err := writeCSV(name, *workers, *duration, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Results written to %s\n", name)
}
