// Command event-seeder posts synthetic analytics events to a running
// sitepulse instance. Useful for exercising the aggregate views with
// plausible traffic during development.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL    = flag.String("url", "http://localhost:8080", "sitepulse base URL")
	apiKey     = flag.String("api-key", "", "API key to ingest with (required)")
	count      = flag.Int("count", 100, "number of events to generate")
	users      = flag.Int("users", 10, "size of the simulated user pool")
	interval   = flag.Duration("interval", 50*time.Millisecond, "pause between events")
	timeSpread = flag.Duration("time-spread", 24*time.Hour, "spread event timestamps over this period (0 for now)")
)

var eventNames = []string{"page_view", "click", "signup", "login", "purchase", "search"}

var devices = []string{"desktop", "mobile", "tablet"}

type collectPayload struct {
	Event     string         `json:"event"`
	URL       string         `json:"url"`
	Referrer  string         `json:"referrer,omitempty"`
	Device    string         `json:"device"`
	IPAddress string         `json:"ipAddress"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"userId"`
	Metadata  map[string]any `json:"metadata"`
}

func main() {
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("API key is required. Use -api-key flag")
	}

	gofakeit.Seed(time.Now().UnixNano())

	userIDs := make([]string, *users)
	for i := range userIDs {
		userIDs[i] = gofakeit.Username()
	}

	log.Printf("Seeding %d events for %d users against %s", *count, *users, *baseURL)

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := *baseURL + "/api/v1/analytics/collect"

	successCount := 0
	failCount := 0

	for i := 0; i < *count; i++ {
		if err := send(client, endpoint, generateEvent(userIDs)); err != nil {
			log.Printf("Failed to send event: %v", err)
			failCount++
		} else {
			successCount++
			if successCount%50 == 0 {
				log.Printf("Progress: %d/%d events sent", successCount, *count)
			}
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("Seeding complete: %d sent, %d failed", successCount, failCount)
}

func generateEvent(userIDs []string) collectPayload {
	ts := time.Now()
	if *timeSpread > 0 {
		ts = ts.Add(-time.Duration(rand.Int63n(int64(*timeSpread))))
	}

	return collectPayload{
		Event:     eventNames[rand.Intn(len(eventNames))],
		URL:       "/" + gofakeit.Word(),
		Referrer:  gofakeit.URL(),
		Device:    devices[rand.Intn(len(devices))],
		IPAddress: gofakeit.IPv4Address(),
		Timestamp: ts,
		UserID:    userIDs[rand.Intn(len(userIDs))],
		Metadata: map[string]any{
			"browser": gofakeit.RandomString([]string{"chrome", "firefox", "safari", "edge"}),
			"os":      gofakeit.RandomString([]string{"linux", "macos", "windows", "android", "ios"}),
		},
	}
}

func send(client *http.Client, endpoint string, payload collectPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", *apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
