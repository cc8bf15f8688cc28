// Command smoke probes a running portal deployment and reports
// per-endpoint status and latency. It exits non-zero when a critical
// probe fails, so it can gate a rollout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

type probe struct {
	Name     string `json:"name"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type result struct {
	Probe    probe
	Status   int
	Duration time.Duration
	Err      error
}

var defaultProbes = []probe{
	{Name: "health", Path: "/health", Expect: http.StatusOK, Critical: true},
	{Name: "ready", Path: "/ready", Expect: http.StatusOK, Critical: true},
	{Name: "metrics", Path: "/metrics", Expect: http.StatusOK},
	{Name: "status-validation", Path: "/api/v1/access/status", Expect: http.StatusBadRequest, Critical: true},
	{Name: "docs", Path: "/docs/index.html", Expect: http.StatusOK},
}

func main() {
	var (
		base       string
		probesPath string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "portal base URL")
	flag.StringVar(&probesPath, "probes", "", "optional JSON probes file, defaults to the built-in set")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes := defaultProbes
	if probesPath != "" {
		loaded, err := loadProbes(probesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load probes: %v\n", err)
			os.Exit(2)
		}
		probes = loaded
	}

	client := &http.Client{Timeout: timeout}
	failedCritical := 0

	for _, p := range probes {
		res := run(client, base, p)
		report(res)
		if p.Critical && !passed(res) {
			failedCritical++
		}
	}

	if failedCritical > 0 {
		fmt.Printf("FAIL: %d critical probe(s) failed\n", failedCritical)
		os.Exit(1)
	}
	fmt.Println("OK: all critical probes passed")
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probes []probe
	if err := json.Unmarshal(data, &probes); err != nil {
		return nil, err
	}
	if len(probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return probes, nil
}

func run(client *http.Client, base string, p probe) result {
	res := result{Probe: p}

	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	return res
}

func passed(r result) bool {
	return r.Err == nil && r.Status == r.Probe.Expect
}

func report(r result) {
	mark := "ok"
	if !passed(r) {
		mark = "FAIL"
	}
	if r.Err != nil {
		fmt.Printf("[%s] %-20s error: %v\n", mark, r.Probe.Name, r.Err)
		return
	}
	fmt.Printf("[%s] %-20s %d (want %d) in %s\n", mark, r.Probe.Name, r.Status, r.Probe.Expect, r.Duration.Round(time.Millisecond))
}
