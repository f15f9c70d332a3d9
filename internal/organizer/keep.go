package organizer

import (
	"context"
	"fmt"
	"log"

	keepapi "google.golang.org/api/keep/v1"
	"google.golang.org/api/option"
)

type KeepService struct {
	svc *keepapi.Service
}

func NewKeep(ctx context.Context, credentialsPath string) (*KeepService, error) {
	httpClient, err := newGoogleClient(ctx, credentialsPath)
	if err != nil {
		return nil, err
	}
	svc, err := keepapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create keep service: %w", err)
	}
	return &KeepService{svc: svc}, nil
}

// CreateNote saves a reference note to Google Keep.
func (k *KeepService) CreateNote(ctx context.Context, title, content string) error {
	note := &keepapi.Note{
		Title: title,
		Body: &keepapi.Section{
			Text: &keepapi.TextContent{Text: content},
		},
	}

	created, err := k.svc.Notes.Create(note).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	log.Printf("Created note: %s", created.Name)
	return nil
}
