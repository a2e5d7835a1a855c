package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maidsafe/safeload/internal/adapters/safecli"
	"github.com/maidsafe/safeload/pkg/workspace"
)

// AddressService reads the address records written by uploads
type AddressService struct {
	workspace *workspace.Workspace
}

// NewAddressService creates a new address service
func NewAddressService(ws *workspace.Workspace) *AddressService {
	return &AddressService{
		workspace: ws,
	}
}

// AddressRecord is one upload response on disk
type AddressRecord struct {
	Name    string
	Path    string
	Stamp   string
	Index   int
	XORURL  string
	Size    int64
	ModTime time.Time
}

// AddressListRequest filters address records
type AddressListRequest struct {
	Stamp string // Only records from this stamp (optional)
}

// AddressListResponse represents the matching records
type AddressListResponse struct {
	Records []AddressRecord
	Total   int
}

// List returns address records ordered by modification time, then index
func (s *AddressService) List(ctx context.Context, req AddressListRequest) (*AddressListResponse, error) {
	entries, err := os.ReadDir(s.workspace.AddressesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &AddressListResponse{Records: []AddressRecord{}}, nil
		}
		return nil, fmt.Errorf("failed to read addresses directory: %w", err)
	}

	records := []AddressRecord{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), workspace.AddressPrefix) {
			continue
		}

		stamp, index, ok := workspace.ParseName(entry.Name())
		if !ok || (req.Stamp != "" && stamp != req.Stamp) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		records = append(records, AddressRecord{
			Name:    entry.Name(),
			Path:    filepath.Join(s.workspace.AddressesPath, entry.Name()),
			Stamp:   stamp,
			Index:   index,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].ModTime.Equal(records[j].ModTime) {
			return records[i].ModTime.Before(records[j].ModTime)
		}
		if records[i].Stamp != records[j].Stamp {
			return records[i].Stamp < records[j].Stamp
		}
		return records[i].Index < records[j].Index
	})

	return &AddressListResponse{Records: records, Total: len(records)}, nil
}

// Get reads a single record by name ("data-address-<stamp>-<i>" or "<stamp>-<i>")
func (s *AddressService) Get(ctx context.Context, name string) (*AddressRecord, []byte, error) {
	if !strings.HasPrefix(name, workspace.AddressPrefix) {
		name = workspace.AddressPrefix + name
	}

	stamp, index, ok := workspace.ParseName(name)
	if !ok {
		return nil, nil, fmt.Errorf("invalid address record name: %s", name)
	}

	path := s.workspace.AddressPath(stamp, index)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read address record: %w", err)
	}

	record := &AddressRecord{
		Name:   filepath.Base(path),
		Path:   path,
		Stamp:  stamp,
		Index:  index,
		XORURL: safecli.ParseXORURL(data),
		Size:   int64(len(data)),
	}
	if info, err := os.Stat(path); err == nil {
		record.ModTime = info.ModTime()
	}

	return record, data, nil
}
