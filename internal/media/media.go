// Package media fronts the object storage that holds setup photos and
// check-in snapshots. The service never streams image bytes itself; it checks
// existence and hands out signed, time-limited URLs.
package media

import (
	"context"

	id "supervision/pkg/domain"
)

// ObjectStorage is the storage collaborator consumed by the workflows.
type ObjectStorage interface {
	// PhotoExists reports whether the setup reference photo has been uploaded.
	PhotoExists(ctx context.Context, setupID id.SetupID) (bool, error)
	// OffenderPhotoURL returns a signed, time-limited URL for the offender's
	// reference photo, or "" when none exists.
	OffenderPhotoURL(ctx context.Context, offenderID id.OffenderID) (string, error)
	// ReferenceKey returns the storage key of the offender's reference photo
	// for the verification engine.
	ReferenceKey(offenderID id.OffenderID) string
}

// Memory is an in-process ObjectStorage for tests.
type Memory struct {
	SetupPhotos    map[id.SetupID]bool
	OffenderPhotos map[id.OffenderID]string
}

func NewMemory() *Memory {
	return &Memory{
		SetupPhotos:    make(map[id.SetupID]bool),
		OffenderPhotos: make(map[id.OffenderID]string),
	}
}

func (m *Memory) PhotoExists(_ context.Context, setupID id.SetupID) (bool, error) {
	return m.SetupPhotos[setupID], nil
}

func (m *Memory) OffenderPhotoURL(_ context.Context, offenderID id.OffenderID) (string, error) {
	return m.OffenderPhotos[offenderID], nil
}

func (m *Memory) ReferenceKey(offenderID id.OffenderID) string {
	return "offenders/" + offenderID.String() + "/reference.jpg"
}
