// Command smoke probes a running rota-api instance and exits non-zero when a
// critical endpoint misbehaves. Wired into the deploy pipeline as a
// post-rollout gate.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Status   int    `json:"status"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type probe struct {
	Target   target
	Status   int
	Match    bool
	Error    error
	Duration time.Duration
}

// defaultTargets covers the read surface; the week path is substituted with
// the current week's Monday at runtime.
var defaultTargets = []target{
	{Method: http.MethodGet, Path: "/health", Status: http.StatusOK, Critical: true},
	{Method: http.MethodGet, Path: "/ready", Status: http.StatusOK, Critical: true},
	{Method: http.MethodGet, Path: "/weeks/{week}", Status: http.StatusOK, Critical: true},
	{Method: http.MethodGet, Path: "/employees", Status: http.StatusOK, Critical: true},
	{Method: http.MethodGet, Path: "/weeks/{week}/export?format=csv", Status: http.StatusOK, Critical: false},
	{Method: http.MethodGet, Path: "/metrics", Status: http.StatusOK, Critical: false},
}

func main() {
	var (
		base        string
		targetsPath string
		timezone    string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&targetsPath, "targets", "", "Optional JSON targets file")
	flag.StringVar(&timezone, "tz", "America/New_York", "Timezone used to resolve the current week")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", timezone, err)
	}
	week := currentMonday(time.Now(), loc).Format("2006-01-02")

	client := &http.Client{Timeout: timeout}
	breaking := 0

	for _, t := range targets {
		p := run(client, base, t, week)
		report(p)
		if t.Critical && (p.Error != nil || !p.Match) {
			breaking++
		}
	}

	if breaking > 0 {
		fmt.Fprintf(os.Stderr, "%d critical probe(s) failed\n", breaking)
		os.Exit(1)
	}
	fmt.Println("all critical probes passed")
}

func loadTargets(path string) ([]target, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return cfg.Targets, nil
}

func currentMonday(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
}

func run(client *http.Client, base string, t target, week string) probe {
	path := strings.ReplaceAll(t.Path, "{week}", week)
	req, err := http.NewRequest(t.Method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return probe{Target: t, Error: err}
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return probe{Target: t, Error: err, Duration: elapsed}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	want := t.Status
	if want == 0 {
		want = http.StatusOK
	}
	return probe{
		Target:   t,
		Status:   resp.StatusCode,
		Match:    resp.StatusCode == want,
		Duration: elapsed,
	}
}

func report(p probe) {
	label := "ok"
	if p.Error != nil {
		label = "error: " + p.Error.Error()
	} else if !p.Match {
		label = fmt.Sprintf("unexpected status %d", p.Status)
	}
	fmt.Printf("%-6s %-40s %8s  %s\n", p.Target.Method, p.Target.Path, p.Duration.Round(time.Millisecond), label)
}
