package constant

// Client -> relay events
const (
	EventAddNote    = "add-note"
	EventUpdateNote = "update-note"
	EventDeleteNote = "delete-note"
)

// Relay -> client events
const (
	EventInitNotes   = "init-notes"
	EventNoteAdded   = "note-added"
	EventNoteUpdated = "note-updated"
	EventNoteDeleted = "note-deleted"
	EventError       = "error"
)

// Messages carried by the error event.
const (
	MessageNoteNotFound   = "Note not found"
	MessageInvalidPayload = "Invalid payload"
	MessageUnknownEvent   = "Unknown event"
	MessageUpdateFailed   = "Failed to update note"
)
