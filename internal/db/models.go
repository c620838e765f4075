package db

type CurrentDocument struct {
	ID          int64
	Content     []byte
	Source      string
	Revision    string
	Size        int64
	RecordCount int64
	LoadedAt    int64
}

type LoadEvent struct {
	ID       int64
	Source   string
	Revision string
	Ok       bool
	Message  string
	At       int64
}
