package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File name prefixes for generated blobs and their address records
const (
	FilePrefix    = "randomfile-"
	AddressPrefix = "data-address-"
)

// Workspace represents the directory tree a batch writes into
type Workspace struct {
	RootPath      string
	FilesPath     string
	AddressesPath string
	RunsPath      string
}

// Layout names the workspace subdirectories
type Layout struct {
	FilesDir     string
	AddressesDir string
	RunsDir      string
}

// DefaultLayout mirrors the directories the upload script always used
func DefaultLayout() Layout {
	return Layout{
		FilesDir:     "files",
		AddressesDir: "addresses",
		RunsDir:      "runs",
	}
}

// New creates a Workspace rooted at root. An empty root means the current directory.
func New(root string, layout Layout) (*Workspace, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	def := DefaultLayout()
	if layout.FilesDir == "" {
		layout.FilesDir = def.FilesDir
	}
	if layout.AddressesDir == "" {
		layout.AddressesDir = def.AddressesDir
	}
	if layout.RunsDir == "" {
		layout.RunsDir = def.RunsDir
	}

	return &Workspace{
		RootPath:      abs,
		FilesPath:     resolve(abs, layout.FilesDir),
		AddressesPath: resolve(abs, layout.AddressesDir),
		RunsPath:      resolve(abs, layout.RunsDir),
	}, nil
}

func resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// ConfigPath returns the config file location
// Follows XDG Base Directory specification on Unix and uses AppData on Windows
func ConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "safeload", "config.yaml"), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "safeload", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "safeload", "config.yaml"), nil
}

// Initialize creates the output directories. Existing directories are left alone.
func (w *Workspace) Initialize() error {
	for _, dir := range w.OutputDirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputDirs lists every directory a run writes into
func (w *Workspace) OutputDirs() []string {
	return []string{w.FilesPath, w.AddressesPath, w.RunsPath}
}

// Exists checks if all output directories are present
func (w *Workspace) Exists() bool {
	for _, dir := range w.OutputDirs() {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// FileName returns the generated blob name for a stamp and index
func FileName(stamp string, index int) string {
	return FilePrefix + stamp + "-" + strconv.Itoa(index)
}

// AddressName returns the address record name for a stamp and index
func AddressName(stamp string, index int) string {
	return AddressPrefix + stamp + "-" + strconv.Itoa(index)
}

// ParseName splits a blob or address record name into its stamp and index.
// The stamp may itself contain dashes, so the index is taken after the last one.
func ParseName(name string) (stamp string, index int, ok bool) {
	base := filepath.Base(name)

	var rest string
	switch {
	case strings.HasPrefix(base, FilePrefix):
		rest = strings.TrimPrefix(base, FilePrefix)
	case strings.HasPrefix(base, AddressPrefix):
		rest = strings.TrimPrefix(base, AddressPrefix)
	default:
		return "", 0, false
	}

	cut := strings.LastIndex(rest, "-")
	if cut <= 0 || cut == len(rest)-1 {
		return "", 0, false
	}

	idx, err := strconv.Atoi(rest[cut+1:])
	if err != nil || idx < 0 {
		return "", 0, false
	}

	return rest[:cut], idx, true
}

// FilePath returns the full path for a generated blob
func (w *Workspace) FilePath(stamp string, index int) string {
	return filepath.Join(w.FilesPath, FileName(stamp, index))
}

// AddressPath returns the full path for an address record
func (w *Workspace) AddressPath(stamp string, index int) string {
	return filepath.Join(w.AddressesPath, AddressName(stamp, index))
}

// AddressPathFor returns the address record matching a blob path inside the files directory
func (w *Workspace) AddressPathFor(filePath string) (string, bool) {
	stamp, index, ok := ParseName(filePath)
	if !ok || !strings.HasPrefix(filepath.Base(filePath), FilePrefix) {
		return "", false
	}
	return w.AddressPath(stamp, index), true
}

// ManifestPath returns the path of a run manifest
func (w *Workspace) ManifestPath(id string) string {
	return filepath.Join(w.RunsPath, id+".json")
}
