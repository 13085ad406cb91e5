package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// ─── API Client Helpers ─────────────────────────────────────────────────────
// Client commands talk to a running daemon over its HTTP API. The base URL
// comes from --server, then ESERBISYO_SERVER, then the default port.

func serverBase(cmd *cobra.Command) string {
	if flag, _ := cmd.Flags().GetString("server"); flag != "" {
		return flag
	}
	if env := os.Getenv("ESERBISYO_SERVER"); env != "" {
		return env
	}
	return "http://127.0.0.1:8090"
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// postJSON sends body as JSON and decodes the response into out.
func postJSON(cmd *cobra.Command, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := httpClient.Post(serverBase(cmd)+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// getJSON decodes a GET response into out.
func getJSON(cmd *cobra.Command, path string, out interface{}) error {
	resp, err := httpClient.Get(serverBase(cmd) + path)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
			return fmt.Errorf("%s (HTTP %d)", e.Error.Message, resp.StatusCode)
		}
		// Some endpoints return the result object itself on 4xx.
		if out != nil && json.Unmarshal(data, out) == nil {
			return nil
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
