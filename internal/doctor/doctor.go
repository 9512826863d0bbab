// Package doctor runs environment diagnostics for the admin console:
// config sanity, state-directory permissions, and backend reachability.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ultradns/ultradns-push-notifier/internal/config"
)

type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "PASS", "FAIL", "WARN", "SKIP"
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type Diagnosis struct {
	Timestamp time.Time     `json:"timestamp"`
	System    SystemInfo    `json:"system"`
	Results   []CheckResult `json:"results"`
}

type SystemInfo struct {
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	Go      string `json:"go_version"`
	Version string `json:"version"`
}

// Run executes all diagnostic checks.
func Run(ctx context.Context, cfg *config.Config, version string) Diagnosis {
	d := Diagnosis{
		Timestamp: time.Now().UTC(),
		System: SystemInfo{
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			Go:      runtime.Version(),
			Version: version,
		},
	}

	checks := []func(context.Context, *config.Config) CheckResult{
		checkConfig,
		checkHomeDir,
		checkServerURL,
		checkBackend,
	}
	for _, check := range checks {
		d.Results = append(d.Results, check(ctx, cfg))
	}
	return d
}

func checkConfig(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Config", Status: "FAIL", Message: "Configuration not loaded"}
	}
	return CheckResult{Name: "Config", Status: "PASS", Message: fmt.Sprintf("Loaded from %s", cfg.HomeDir)}
}

func checkHomeDir(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "State Dir", Status: "SKIP", Message: "Config missing"}
	}
	probe := filepath.Join(cfg.HomeDir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return CheckResult{
			Name:    "State Dir",
			Status:  "FAIL",
			Message: fmt.Sprintf("%s is not writable", cfg.HomeDir),
			Detail:  err.Error(),
		}
	}
	os.Remove(probe)
	return CheckResult{Name: "State Dir", Status: "PASS", Message: fmt.Sprintf("%s is writable", cfg.HomeDir)}
}

func checkServerURL(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Server URL", Status: "SKIP", Message: "Config missing"}
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return CheckResult{Name: "Server URL", Status: "FAIL", Message: fmt.Sprintf("Invalid server_url %q", cfg.ServerURL)}
	}
	if u.Scheme == "http" {
		return CheckResult{
			Name:    "Server URL",
			Status:  "WARN",
			Message: fmt.Sprintf("%s uses plain HTTP", cfg.ServerURL),
			Detail:  "UltraDNS requires HTTPS callback endpoints; put a TLS proxy in front",
		}
	}
	return CheckResult{Name: "Server URL", Status: "PASS", Message: cfg.ServerURL}
}

func checkBackend(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Backend", Status: "SKIP", Message: "Config missing"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ServerURL+"/api/gui-status", nil)
	if err != nil {
		return CheckResult{Name: "Backend", Status: "FAIL", Message: "Cannot build request", Detail: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return CheckResult{
			Name:    "Backend",
			Status:  "FAIL",
			Message: fmt.Sprintf("Unreachable at %s", cfg.ServerURL),
			Detail:  err.Error(),
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return CheckResult{
			Name:    "Backend",
			Status:  "WARN",
			Message: fmt.Sprintf("Responded with status %d", resp.StatusCode),
		}
	}
	return CheckResult{Name: "Backend", Status: "PASS", Message: "Reachable"}
}
