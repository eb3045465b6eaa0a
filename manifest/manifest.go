package manifest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/skosovsky/promptreg"

	"gopkg.in/yaml.v3"
)

// fileManifest is the YAML manifest shape.
type fileManifest struct {
	ID          string         `yaml:"id"`
	Description string         `yaml:"description"`
	Arguments   []fileArgument `yaml:"arguments"`
	Messages    []fileMessage  `yaml:"messages"`
}

type fileArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

type fileMessage struct {
	Role    string      `yaml:"role"`
	Content fileContent `yaml:"content"`
}

// fileContent is the tagged union of message content; Type defaults to "text".
type fileContent struct {
	Type     string `yaml:"type"`
	Text     string `yaml:"text"`
	URL      string `yaml:"url"`
	MIMEType string `yaml:"mime_type"`
	Data     string `yaml:"data"` // base64
}

// ParseBytes parses a YAML manifest and returns an entry with a static generator.
// Unknown keys, unknown roles and unknown content types are rejected with promptreg.ErrInvalidManifest.
func ParseBytes(data []byte) (promptreg.Entry, error) {
	var m fileManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return promptreg.Entry{}, fmt.Errorf("%w: empty document", promptreg.ErrInvalidManifest)
		}
		return promptreg.Entry{}, fmt.Errorf("%w: %w", promptreg.ErrInvalidManifest, err)
	}
	return buildEntry(&m)
}

// ParseFile reads and parses a manifest file.
func ParseFile(path string) (promptreg.Entry, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is chosen by the process owner
	if err != nil {
		return promptreg.Entry{}, fmt.Errorf("manifest: read file: %w", err)
	}
	return ParseBytes(data)
}

// ParseFS reads and parses a manifest from fs.FS (e.g. embed.FS).
func ParseFS(fsys fs.FS, name string) (promptreg.Entry, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return promptreg.Entry{}, fmt.Errorf("manifest: read fs: %w", err)
	}
	return ParseBytes(data)
}

// LoadFS parses every .yaml/.yml file under root in lexical path order.
// Errors are prefixed with the offending path.
func LoadFS(fsys fs.FS, root string) ([]promptreg.Entry, error) {
	var out []promptreg.Entry
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsManifestName(path) {
			return nil
		}
		e, err := ParseFS(fsys, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsManifestName reports whether name has a manifest extension (.yaml or .yml).
func IsManifestName(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func buildEntry(m *fileManifest) (promptreg.Entry, error) {
	if m.ID == "" {
		return promptreg.Entry{}, fmt.Errorf("%w: missing id", promptreg.ErrInvalidManifest)
	}
	if len(m.Messages) == 0 {
		return promptreg.Entry{}, fmt.Errorf("%w: %q: missing messages", promptreg.ErrInvalidManifest, m.ID)
	}
	msgs := make([]promptreg.Message, 0, len(m.Messages))
	for i, fm := range m.Messages {
		role := promptreg.Role(fm.Role)
		if !role.Valid() {
			return promptreg.Entry{}, fmt.Errorf("%w: %q: message %d: invalid role %q", promptreg.ErrInvalidManifest, m.ID, i, fm.Role)
		}
		part, err := fm.Content.part()
		if err != nil {
			return promptreg.Entry{}, fmt.Errorf("%w: %q: message %d: %w", promptreg.ErrInvalidManifest, m.ID, i, err)
		}
		msgs = append(msgs, promptreg.Message{Role: role, Content: part})
	}
	var opts []promptreg.EntryOption
	if len(m.Arguments) > 0 {
		args := make([]promptreg.Argument, 0, len(m.Arguments))
		for _, a := range m.Arguments {
			args = append(args, promptreg.Argument{Name: a.Name, Description: a.Description, Required: a.Required})
		}
		opts = append(opts, promptreg.WithArguments(args...))
	}
	e, err := promptreg.NewEntry(m.ID, m.Description, promptreg.Static(msgs...), opts...)
	if err != nil {
		return promptreg.Entry{}, fmt.Errorf("%w: %w", promptreg.ErrInvalidManifest, err)
	}
	return e, nil
}

func (c fileContent) part() (promptreg.ContentPart, error) {
	switch c.Type {
	case "", promptreg.ContentText:
		if c.URL != "" || c.Data != "" || c.MIMEType != "" {
			return nil, errors.New("text content must not carry url, data or mime_type")
		}
		return promptreg.TextPart{Text: c.Text}, nil
	case promptreg.ContentImage:
		if c.Text != "" {
			return nil, errors.New("image content must not carry text")
		}
		var data []byte
		if c.Data != "" {
			decoded, err := base64.StdEncoding.DecodeString(c.Data)
			if err != nil {
				return nil, fmt.Errorf("image data: %w", err)
			}
			data = decoded
		}
		if len(data) == 0 && c.URL == "" {
			return nil, errors.New("image content needs url or data")
		}
		return promptreg.ImagePart{URL: c.URL, MIMEType: c.MIMEType, Data: data}, nil
	default:
		return nil, fmt.Errorf("unknown content type %q", c.Type)
	}
}
