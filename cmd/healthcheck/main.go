package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Services  struct {
		Database struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		} `json:"database"`
	} `json:"services"`
}

func main() {
	url := "http://localhost:5001/health"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	health, err := check(client, url)
	if err != nil {
		fmt.Printf("Health check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Health check passed\n")
	fmt.Printf("   Version: %s\n", health.Version)
	fmt.Printf("   Database: %s\n", health.Services.Database.Status)
	fmt.Printf("   Timestamp: %s\n", health.Timestamp)
}

// check fetches url and succeeds only when the service and its database
// both report ok.
func check(client *http.Client, url string) (*HealthResponse, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to health endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("error parsing response (status %d): %w", resp.StatusCode, err)
	}

	if health.Services.Database.Status != "ok" {
		if health.Services.Database.Error != "" {
			return &health, fmt.Errorf("database status is %q: %s", health.Services.Database.Status, health.Services.Database.Error)
		}
		return &health, fmt.Errorf("database status is %q", health.Services.Database.Status)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		return &health, fmt.Errorf("health status is %q (HTTP %d)", health.Status, resp.StatusCode)
	}
	return &health, nil
}
