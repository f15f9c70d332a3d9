// Package organizer files classified captures into the external
// task/note stores: Google Tasks for actionable items and Google Keep
// for reference notes. Both clients authenticate with the same
// service-account credentials.
package organizer

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	keepapi "google.golang.org/api/keep/v1"
	tasksapi "google.golang.org/api/tasks/v1"
)

var scopes = []string{
	tasksapi.TasksScope,
	keepapi.KeepScope,
}

// newGoogleClient builds an authenticated HTTP client from a service
// account credentials file.
func newGoogleClient(ctx context.Context, credentialsPath string) (*http.Client, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return cfg.Client(ctx), nil
}
