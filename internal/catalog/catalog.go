package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/medscore/internal/models"
)

//go:embed forms/*.yaml
var embedded embed.FS

// Catalog holds the stock forms shipped with the server or read from a directory.
type Catalog struct {
	forms map[string]*models.Form
	order []string
}

// Load reads every *.yaml / *.yml file of dir. An empty dir means the
// embedded forms. Each form is validated; the first invalid file aborts the load.
func Load(dir string) (*Catalog, error) {
	var fsys fs.FS
	root := "."
	if dir == "" {
		fsys, root = embedded, "forms"
	} else {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("catalog dir: %w", err)
		}
		fsys = os.DirFS(dir)
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c := &Catalog{forms: map[string]*models.Form{}}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		f, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := c.forms[f.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate form id %q", name, f.ID)
		}
		c.forms[f.ID] = f
		c.order = append(c.order, f.ID)
	}
	sort.Strings(c.order)
	return c, nil
}

// Parse decodes one YAML form document and validates it. Unknown keys are errors.
func Parse(data []byte) (*models.Form, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f models.Form
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	if strings.TrimSpace(f.ID) == "" {
		return nil, errors.New("form id required")
	}
	if strings.TrimSpace(f.Title) == "" {
		return nil, fmt.Errorf("form %s: title required", f.ID)
	}
	if errs := models.ValidateForm(&f); len(errs) > 0 {
		return nil, fmt.Errorf("form %s: %w", f.ID, errs)
	}
	return &f, nil
}

// Get returns a copy of the form with the given id.
func (c *Catalog) Get(id string) (*models.Form, bool) {
	f, ok := c.forms[id]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// Forms returns copies of all forms ordered by id.
func (c *Catalog) Forms() []*models.Form {
	out := make([]*models.Form, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.forms[id].Clone())
	}
	return out
}

func (c *Catalog) Len() int { return len(c.order) }
