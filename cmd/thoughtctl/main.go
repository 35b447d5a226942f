// Command thoughtctl is a manual exerciser of the ingest HTTP surface,
// adapted from the teacher's scripts/test_ai_api.go: submit one thought and
// tail its progress stream, printing each event as it arrives. It talks to a
// running cmd/api instance over plain HTTP, never to the database or broker
// directly.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

type submitRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type submitResponse struct {
	ThoughtID string `json:"thought_id"`
	Accepted  bool   `json:"accepted"`
	Mode      string `json:"mode"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:3000/v1", "base URL of a running cmd/api instance")
	userID := flag.String("user", "", "user_id to submit the thought as (required)")
	text := flag.String("text", "", "thought text to submit (required)")
	flag.Parse()

	if *userID == "" || *text == "" {
		color.Red("both -user and -text are required")
		flag.Usage()
		os.Exit(1)
	}

	color.Cyan("submitting thought for user %s", *userID)

	thoughtID, mode, err := submit(*baseURL, *userID, *text)
	if err != nil {
		color.Red("submit failed: %v", err)
		os.Exit(1)
	}
	color.Green("accepted: thought_id=%s mode=%s", thoughtID, mode)

	if mode != "stream" {
		color.Yellow("the server stored the thought but could not publish it to the broker; it stays pending, nothing to tail")
		return
	}

	color.Cyan("tailing progress for user %s (ctrl-c to stop)", *userID)
	if err := tail(*baseURL, *userID); err != nil {
		color.Red("tail ended: %v", err)
		os.Exit(1)
	}
}

func submit(baseURL, userID, text string) (thoughtID, mode string, err error) {
	body, _ := json.Marshal(submitRequest{UserID: userID, Text: text})
	resp, err := http.Post(baseURL+"/thoughts/", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("status %s: %s", resp.Status, string(raw))
	}

	var parsed submitResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", "", err
	}
	return parsed.ThoughtID, parsed.Mode, nil
}

// tail opens the SSE stream and prints each "data: ..." line until the
// connection ends, mirroring the teacher's prettyPrint helper for readable
// JSON output.
func tail(baseURL, userID string) error {
	resp, err := http.Get(baseURL + "/thoughts/" + userID + "/events")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ": heartbeat") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == line {
			continue
		}
		prettyPrint(payload)
	}
	return scanner.Err()
}

func prettyPrint(raw string) {
	var v map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		fmt.Println(raw)
		return
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(raw)
		return
	}
	color.Green("%s", string(pretty))
}
