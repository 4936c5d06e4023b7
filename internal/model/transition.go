package model

// Status changes are free-form: any authorized caller may move a document
// from any status to any other, in any order.  The tables below make that
// policy explicit.  A forward-only policy would be expressed by removing
// entries here; callers already consult these functions.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusPending:    DocumentStatuses,
	StatusProcessing: DocumentStatuses,
	StatusCompleted:  DocumentStatuses,
	StatusFailed:     DocumentStatuses,
}

var ingestionTransitions = map[IngestionStatus][]IngestionStatus{
	IngestionNotStarted: IngestionStatuses,
	IngestionInProgress: IngestionStatuses,
	IngestionCompleted:  IngestionStatuses,
	IngestionFailed:     IngestionStatuses,
}

// StatusTransitionAllowed reports whether a document may move from one
// status to another.
func StatusTransitionAllowed(from, to DocumentStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IngestionTransitionAllowed reports whether the ingestion status may move
// from one value to another.
func IngestionTransitionAllowed(from, to IngestionStatus) bool {
	for _, s := range ingestionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
