// Package faceapi talks to the facial-sentiment service: one camera frame
// is grabbed and classified per call.
package faceapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiTimeout = 3

// Result is one classified frame. FaceFound false means the frame had no
// detectable face; Label/Confidence are meaningless in that case.
type Result struct {
	FaceFound  bool               `json:"face_found"`
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

// Sample asks the service to grab and classify the current frame.
func Sample(apiEndpoint string) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout*time.Second)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, apiEndpoint, nil)
	if err != nil {
		return Result{}, err
	}

	req = req.WithContext(ctx)
	client := http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	bytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	if resp.StatusCode == http.StatusInternalServerError {
		return Result{}, errors.New(fmt.Sprintf("internal server error 500: %s", string(bytes)))
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, errors.New(string(bytes))
	}

	var r Result
	if err := json.Unmarshal(bytes, &r); err != nil {
		return Result{}, err
	}

	return r, nil
}
