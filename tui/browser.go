package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samaelod/netassist/lua"
)

// FileBrowser lists a directory and previews the highlighted profile.
type FileBrowser struct {
	List           list.Model
	CurrentDir     string
	PreviewContent string
	Height         int
	Width          int
	Err            error
	AllowedTypes   []string
}

type fileItem struct {
	name  string
	path  string
	isDir bool
	size  int64
}

func (i fileItem) Title() string {
	if i.isDir {
		return i.name + "/"
	}
	return i.name
}
func (i fileItem) Description() string {
	if i.isDir {
		return "Directory"
	}
	return fmt.Sprintf("File • %d bytes", i.size)
}
func (i fileItem) FilterValue() string { return i.name }

type browserDelegate struct {
	allowedTypes []string
}

func (d browserDelegate) Height() int                               { return 1 }
func (d browserDelegate) Spacing() int                              { return 0 }
func (d browserDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d browserDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(fileItem)
	if !ok {
		return
	}

	str := i.Title()

	var style lipgloss.Style
	switch {
	case index == m.Index():
		style = styleSelected
		str = "> " + str
	case i.isDir:
		style = lipgloss.NewStyle().Foreground(colorText).Bold(true)
		str = "  " + str
	case matchesExt(i.name, d.allowedTypes):
		style = lipgloss.NewStyle().Foreground(colorPrimary)
		str = "  " + str
	default:
		style = lipgloss.NewStyle().Foreground(colorSubtext).Faint(true)
		str = "  " + str
	}

	fmt.Fprint(w, style.Render(str))
}

func matchesExt(name string, exts []string) bool {
	nameLower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(nameLower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func NewFileBrowser(allowedTypes []string) FileBrowser {
	cwd, _ := os.Getwd()

	fb := FileBrowser{
		CurrentDir:   cwd,
		AllowedTypes: allowedTypes,
	}

	l := list.New([]list.Item{}, browserDelegate{allowedTypes: allowedTypes}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = styleTitle
	fb.List = l

	fb.refreshDir()
	return fb
}

func (fb *FileBrowser) allowed(name string) bool {
	return matchesExt(name, fb.AllowedTypes)
}

func (fb *FileBrowser) refreshDir() {
	entries, err := os.ReadDir(fb.CurrentDir)
	if err != nil {
		fb.Err = err
		return
	}

	items := []list.Item{}

	if filepath.Dir(fb.CurrentDir) != fb.CurrentDir {
		items = append(items, fileItem{name: "..", path: filepath.Dir(fb.CurrentDir), isDir: true})
	}

	// Dirs first, then files
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}

		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		items = append(items, fileItem{
			name:  e.Name(),
			path:  filepath.Join(fb.CurrentDir, e.Name()),
			isDir: e.IsDir(),
			size:  size,
		})
	}

	fb.List.SetItems(items)
	fb.updatePreview()
}

func (fb *FileBrowser) HasValidFilesInDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if fb.allowed(e.Name()) {
			return true
		}
	}
	return false
}

// updatePreview shows the endpoints of a profile that loads, or the load
// error followed by the raw file for one that does not.
func (fb *FileBrowser) updatePreview() {
	fi, ok := fb.List.SelectedItem().(fileItem)
	if !ok {
		fb.PreviewContent = ""
		return
	}

	if fi.isDir {
		fb.PreviewContent = "Directory: " + fi.name
		return
	}

	if !fb.allowed(fi.name) {
		fb.PreviewContent = "File type not supported."
		return
	}

	raw, err := os.ReadFile(fi.path)
	if err != nil {
		fb.PreviewContent = "Error reading file"
		return
	}

	var sb strings.Builder
	p, err := lua.ReadProfile(fi.path)
	if err != nil {
		fmt.Fprintf(&sb, "Invalid profile: %v\n\n", err)
	} else {
		cfg := p.Endpoint()
		fmt.Fprintf(&sb, "%s -> %s  rx=%s tx=%s  presets=%d\n\n",
			cfg.LocalAddr(), cfg.RemoteAddr(), cfg.RxMode, cfg.TxMode, len(p.Presets))
	}
	sb.Write(raw)

	lines := strings.Split(sb.String(), "\n")
	maxLines := fb.Height
	if maxLines <= 0 {
		maxLines = 10
	}
	if len(lines) > maxLines {
		fb.PreviewContent = strings.Join(lines[:maxLines], "\n") + "\n... (truncated)"
	} else {
		fb.PreviewContent = strings.Join(lines, "\n")
	}
}

func (fb FileBrowser) Update(msg tea.Msg) (FileBrowser, tea.Cmd) {
	var cmd tea.Cmd
	fb.List, cmd = fb.List.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			if fi, ok := fb.List.SelectedItem().(fileItem); ok && fi.isDir {
				fb.CurrentDir = fi.path
				fb.refreshDir()
				fb.List.ResetSelected()
			}
		case "backspace", "left":
			parent := filepath.Dir(fb.CurrentDir)
			if parent != fb.CurrentDir {
				fb.CurrentDir = parent
				fb.refreshDir()
				fb.List.ResetSelected()
			}
		}
	}

	fb.updatePreview()
	return fb, cmd
}

func (fb *FileBrowser) SetSize(width, height int) {
	fb.Width = width
	fb.Height = height
	fb.List.SetSize(max(width, 0), max(height, 0))
}

func (fb FileBrowser) View() string {
	return fb.List.View()
}
