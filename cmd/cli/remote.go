package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/yourusername/mp3-extract-go/internal/app"
)

var (
	serverURL   string
	noAutoStart bool
	remoteCmd   = &cobra.Command{
		Use:   "remote",
		Short: "Control a running mp3-extract server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(); err != nil {
				return err
			}
			ensureServer()
			return nil
		},
	}
)

var remoteSubmitCmd = &cobra.Command{
	Use:   "submit [url]",
	Short: "Start a job on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]interface{}{"url": args[0]}
		if q, _ := cmd.Flags().GetString("quality"); q != "" {
			payload["quality"] = q
		}
		if cmd.Flags().Changed("playlist") {
			payload["expand_playlist"], _ = cmd.Flags().GetBool("playlist")
		}
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			payload["destination_dir"] = dir
		}

		// Subscribe before submitting so no event of the job is missed
		var conn *websocket.Conn
		if follow, _ := cmd.Flags().GetBool("follow"); follow {
			var err error
			if conn, err = dialEvents(); err != nil {
				return err
			}
			defer conn.Close()
		}

		var result struct {
			JobID string `json:"job_id"`
		}
		if err := doJSON(http.MethodPost, "/api/v1/jobs", payload, http.StatusAccepted, &result); err != nil {
			return err
		}
		fmt.Printf("Job started: %s\n", result.JobID)

		if conn != nil {
			return followJob(conn, result.JobID)
		}
		return nil
	},
}

var remoteCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the job running on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doJSON(http.MethodPost, "/api/v1/jobs/cancel", nil, http.StatusAccepted, nil); err != nil {
			return err
		}
		fmt.Println("Cancellation requested")
		return nil
	},
}

var remoteStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show what the server is doing",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Label  string `json:"label"`
			Active bool   `json:"active"`
		}
		if err := doJSON(http.MethodGet, "/api/v1/jobs/state", nil, http.StatusOK, &result); err != nil {
			return err
		}
		fmt.Printf("State:  %s\n", result.Label)
		fmt.Printf("Active: %v\n", result.Active)
		return nil
	},
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	remoteCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	remoteSubmitCmd.Flags().StringP("quality", "q", "", "Bitrate in kbps")
	remoteSubmitCmd.Flags().BoolP("playlist", "p", false, "Download every playlist entry")
	remoteSubmitCmd.Flags().StringP("dir", "d", "", "Destination directory on the server host")
	remoteSubmitCmd.Flags().BoolP("follow", "f", false, "Show progress until the job finishes")

	remoteCmd.AddCommand(remoteSubmitCmd)
	remoteCmd.AddCommand(remoteCancelCmd)
	remoteCmd.AddCommand(remoteStateCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func doJSON(method, path string, payload interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func dialEvents() (*websocket.Conn, error) {
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event stream: %w", err)
	}
	return conn, nil
}

// followJob streams server events into the progress reporter until the
// job's JobFinished event arrives
func followJob(conn *websocket.Conn, jobID string) error {
	reporter := newProgressReporter(os.Stderr)
	for {
		var e app.Event
		if err := conn.ReadJSON(&e); err != nil {
			return fmt.Errorf("event stream closed: %w", err)
		}
		if e.JobID != jobID {
			continue
		}
		reporter.HandleEvent(e)
		if e.Type == app.EventJobFinished && e.Result != nil {
			return reportResult(e.Result)
		}
	}
}
