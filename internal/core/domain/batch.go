package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Account holds the identity returned by the safe CLI after key creation
type Account struct {
	XORURL    string `json:"xorurl,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
	Preload   string `json:"preload"`
	Default   bool   `json:"default"` // Stored as the CLI's default identity

	// SecretKey is only held in memory to pay for uploads explicitly
	SecretKey string `json:"-"`
}

// Item is one generate-then-upload iteration
type Item struct {
	Index       int           `json:"index"`
	FilePath    string        `json:"file_path"`
	AddressPath string        `json:"address_path"`
	Size        int64         `json:"size"`
	Generated   bool          `json:"generated"`
	Uploaded    bool          `json:"uploaded"`
	Skipped     bool          `json:"skipped,omitempty"` // Never attempted because the run aborted
	XORURL      string        `json:"xorurl,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`

	Err *StepError `json:"-"`
}

// Succeeded reports whether the item made it all the way through upload
func (i Item) Succeeded() bool {
	return i.Generated && i.Uploaded && i.Err == nil && i.Error == ""
}

// Fail records a step failure on the item
func (i *Item) Fail(err *StepError) {
	i.Err = err
	i.Error = err.Error()
}

// Batch is a single run of the uploader
type Batch struct {
	ID         string    `json:"id"`
	Stamp      string    `json:"stamp"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	FileSize   int64     `json:"file_size"`
	Account    *Account  `json:"account,omitempty"`
	Aborted    bool      `json:"aborted"`
	Error      string    `json:"error,omitempty"`

	// SetupFailed marks an account or directory failure the run continued past
	SetupFailed bool `json:"setup_failed,omitempty"`
	Items      []Item    `json:"items"`
}

// NewBatch starts a batch at the given time, formatting the stamp with layout
func NewBatch(startedAt time.Time, layout string, fileSize int64) *Batch {
	return &Batch{
		ID:        uuid.New().String(),
		Stamp:     startedAt.Format(layout),
		StartedAt: startedAt,
		FileSize:  fileSize,
		Items:     []Item{},
	}
}

// ShortID returns the first block of the batch ID for display
func (b *Batch) ShortID() string {
	if len(b.ID) < 8 {
		return b.ID
	}
	return b.ID[:8]
}

// SortItems orders items by index
func (b *Batch) SortItems() {
	sort.Slice(b.Items, func(i, j int) bool {
		return b.Items[i].Index < b.Items[j].Index
	})
}

// Counts returns how many items succeeded and failed
func (b *Batch) Counts() (succeeded, failed int) {
	for _, item := range b.Items {
		if item.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Failed reports whether anything in the batch went wrong
func (b *Batch) Failed() bool {
	_, failed := b.Counts()
	return b.Aborted || b.SetupFailed || failed > 0
}

// Duration returns the wall clock time of the batch
func (b *Batch) Duration() time.Duration {
	if b.FinishedAt.IsZero() {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}
