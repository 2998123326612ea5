package caption

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/capseg/capseg/internal/segment"
)

// Format is one registry entry: a name, its file extensions, and the
// directions it implements. Reader or Writer may be nil for one-way
// formats.
type Format struct {
	Name       string
	Extensions []string
	Reader     Reader
	Writer     Writer
}

// Registry maps format names and extensions to codecs. It is populated
// once at construction and read-only afterwards, so concurrent reads
// need no locking.
type Registry struct {
	byName map[string]*Format
	byExt  map[string]*Format
	order  []string
}

// NewRegistry returns a registry with every builtin codec registered.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Format),
		byExt:  make(map[string]*Format),
	}

	srt := srtCodec{}
	vtt := vttCodec{}
	sbv := sbvCodec{}
	ass := newASSCodec()
	txt := txtCodec{}
	lrc := lrcCodec{}
	sub := subCodec{}
	ttml := ttmlCodec{}

	r.Register(Format{Name: "srt", Extensions: []string{".srt"}, Reader: srt, Writer: srt})
	r.Register(Format{Name: "vtt", Extensions: []string{".vtt"}, Reader: vtt, Writer: vtt})
	r.Register(Format{Name: "sbv", Extensions: []string{".sbv"}, Reader: sbv, Writer: sbv})
	r.Register(Format{Name: "ass", Extensions: []string{".ass", ".ssa"}, Reader: ass, Writer: ass})
	r.Register(Format{Name: "txt", Extensions: []string{".txt"}, Reader: txt, Writer: txt})
	r.Register(Format{Name: "lrc", Extensions: []string{".lrc"}, Reader: lrc, Writer: lrc})
	r.Register(Format{Name: "sub", Extensions: []string{".sub"}, Reader: sub, Writer: sub})
	r.Register(Format{Name: "ttml", Extensions: []string{".ttml", ".xml"}, Reader: ttml, Writer: ttml})
	r.Register(Format{Name: "textgrid", Extensions: []string{".textgrid"}, Writer: textGridCodec{}})
	r.Register(Format{Name: "gemini", Extensions: []string{".md"}, Reader: geminiCodec{}})
	r.Register(Format{Name: "json", Extensions: []string{".json"}, Writer: jsonCodec{}})

	return r
}

// Register adds a format. Later registrations win extension conflicts;
// call before any concurrent use.
func (r *Registry) Register(f Format) {
	entry := f
	r.byName[f.Name] = &entry
	for _, ext := range f.Extensions {
		r.byExt[strings.ToLower(ext)] = &entry
	}
	r.order = append(r.order, f.Name)
}

// Names lists registered formats in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Reader returns the named format's reader, or an
// UnsupportedFormatError when the format is unknown or write-only.
func (r *Registry) Reader(name string) (Reader, error) {
	f, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, &UnsupportedFormatError{Format: name}
	}
	if f.Reader == nil {
		return nil, &UnsupportedFormatError{Format: name, Operation: "read"}
	}
	return f.Reader, nil
}

// Writer returns the named format's writer, or an
// UnsupportedFormatError when the format is unknown or read-only.
func (r *Registry) Writer(name string) (Writer, error) {
	f, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, &UnsupportedFormatError{Format: name}
	}
	if f.Writer == nil {
		return nil, &UnsupportedFormatError{Format: name, Operation: "write"}
	}
	return f.Writer, nil
}

// Detect resolves a format name from a path's extension, falling back
// to content sniffing. Either argument may be empty. An explicit
// format name chosen by the caller always takes precedence over
// calling Detect at all.
func (r *Registry) Detect(path string, content []byte) (string, error) {
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if f, ok := r.byExt[ext]; ok {
			return f.Name, nil
		}
	}

	if name := sniff(content); name != "" {
		return name, nil
	}

	sig := filepath.Ext(path)
	if sig == "" {
		sig = "unrecognized content"
	}
	return "", &UnsupportedFormatError{Signature: sig}
}

// sniff inspects content for per-format signatures.
func sniff(content []byte) string {
	head := bytes.TrimPrefix(content, []byte("\ufeff"))
	if len(head) > 2048 {
		head = head[:2048]
	}
	text := strings.TrimSpace(string(head))

	switch {
	case strings.HasPrefix(text, "WEBVTT"):
		return "vtt"
	case strings.HasPrefix(text, "[Script Info]"):
		return "ass"
	case strings.HasPrefix(text, "<?xml"), strings.HasPrefix(text, "<tt"):
		return "ttml"
	case strings.HasPrefix(text, "## ["):
		return "gemini"
	}

	// SRT: a numeric index line followed by a comma-decimal range
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 4 {
			break
		}
		if srtTimeRangeRegex.MatchString(strings.TrimSpace(line)) {
			return "srt"
		}
		if sbvTimeRangeRegex.MatchString(strings.TrimSpace(line)) {
			return "sbv"
		}
		if lrcLineRegex.MatchString(strings.TrimSpace(line)) {
			return "lrc"
		}
		if subLineRegex.MatchString(strings.TrimSpace(line)) {
			return "sub"
		}
	}
	return ""
}

// ReadFile detects the file's format (unless name is non-empty) and
// parses it.
func (r *Registry) ReadFile(path, name string, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if name == "" {
		name, err = r.Detect(path, data)
		if err != nil {
			return nil, nil, err
		}
	}

	reader, err := r.Reader(name)
	if err != nil {
		return nil, nil, err
	}

	segments, warnings, err := reader.Read(bytes.NewReader(data), opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return segments, warnings, nil
}

// WriteFile renders segments to path in the named format (detected
// from the extension when name is empty). A failed write removes the
// partial file so no truncated output is left behind.
func (r *Registry) WriteFile(path, name string, segments []segment.Segment, opts WriteOptions) error {
	if name == "" {
		detected, err := r.Detect(path, nil)
		if err != nil {
			return err
		}
		name = detected
	}

	writer, err := r.Writer(name)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := writer.Write(file, segments, opts); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
