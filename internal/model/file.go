package model

// StoredFile is the reference to an artifact written by the file store.
// Path is what documents keep as their fileUrl.
type StoredFile struct {
	Path      string // local path or object key
	Extension string // extension of the original file name, e.g. ".pdf"
	Size      int64  // bytes written
}
