// Package firebase bootstraps the Firebase Admin SDK clients the server uses.
package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
)

// Config holds Firebase initialization settings.
type Config struct {
	ProjectID string
}

// Clients groups the initialized Firebase clients.
type Clients struct {
	Firestore *firestore.Client
}

// InitializeClients creates the Firebase app and its Firestore client.
// FIRESTORE_EMULATOR_HOST is honored by the SDK.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	return &Clients{Firestore: fs}, nil
}

// Close releases the underlying clients.
func (c *Clients) Close() error {
	if c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
