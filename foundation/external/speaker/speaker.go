// Package speaker pushes short status lines to the text-to-speech daemon.
// Fire and forget: callers never consume a payload, only the error.
package speaker

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiTimeout = 5

// Say renders/speaks one short status string.
func Say(apiEndpoint string, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout*time.Second)
	defer cancel()

	params := url.Values{}
	params.Add("text", text)

	payload := strings.NewReader(params.Encode())

	req, err := http.NewRequest(http.MethodPost, apiEndpoint, payload)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	req = req.WithContext(ctx)
	client := http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(resp.Status)
	}

	return nil
}
