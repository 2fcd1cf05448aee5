package usecases

import (
	"errors"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// Errors returned by the syncplay use cases.
var (
	// ErrStaleUpdate is returned when a queue update is not newer than the
	// accepted state. It is expected under concurrent delivery and must not
	// be surfaced to users.
	ErrStaleUpdate = domain.ErrStaleUpdate

	// ErrSuperseded is returned when a newer update was committed while the
	// catalog fetch for this one was in flight.
	ErrSuperseded = errors.New("queue update superseded while resolving items")

	// ErrCatalogResolution is returned when the catalog could not resolve the
	// items of an update. The state is left untouched and the update may be retried.
	ErrCatalogResolution = errors.New("failed to resolve queue items")

	// ErrLocalPlaybackStart is returned when the local player rejected a start request.
	ErrLocalPlaybackStart = errors.New("local playback failed to start")

	// ErrNotConnected is returned when the guild has no group session.
	ErrNotConnected = errors.New("not connected to a group")

	// ErrAlreadyConnected is returned when the guild already has a group session.
	ErrAlreadyConnected = errors.New("already connected to a group, leave it first")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrInvalidGroup is returned when a group id is empty or malformed.
	ErrInvalidGroup = errors.New("invalid group id")
)
