// Package catalog loads the clinic treatment price list handed to the LLM as
// context.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/almeera/ultah/internal/logging"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Treatment is one priced entry of the catalog.
type Treatment struct {
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Price       Price  `json:"price" yaml:"price"`
}

// Price holds either a numeric amount in rupiah or free text such as
// "mulai 150rb".
type Price struct {
	Amount  float64
	Text    string
	Numeric bool
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceFromText(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("price must be a number or string: %w", err)
	}
	*p = Price{Amount: f, Numeric: true}
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.Numeric {
		return json.Marshal(p.Amount)
	}
	return json.Marshal(p.Text)
}

func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("price must be a scalar, got line %d", node.Line)
	}
	switch node.Tag {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("parse price %q: %w", node.Value, err)
		}
		*p = Price{Amount: f, Numeric: true}
	case "!!null":
		*p = Price{}
	default:
		*p = priceFromText(node.Value)
	}
	return nil
}

// priceFromText keeps numeric-looking strings such as "150000" numeric.
func priceFromText(s string) Price {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Price{Amount: f, Numeric: true}
	}
	return Price{Text: s}
}

var printer = message.NewPrinter(language.Indonesian)

// String renders numeric prices with Indonesian digit grouping ("Rp 150.000").
func (p Price) String() string {
	if !p.Numeric {
		return p.Text
	}
	if p.Amount == math.Trunc(p.Amount) {
		return printer.Sprintf("Rp %d", int64(p.Amount))
	}
	return printer.Sprintf("Rp %.2f", p.Amount)
}

// Catalog is an ordered treatment list.
type Catalog struct {
	Treatments []Treatment `json:"treatments" yaml:"treatments"`
}

// Len returns the number of treatments.
func (c Catalog) Len() int {
	return len(c.Treatments)
}

// Load reads a catalog from a .json, .yaml, or .yml file. The file may hold
// either a bare list of treatments or an object with a "treatments" key. A
// missing file yields an empty catalog.
func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Logger().Warn("price list not found; continuing without treatment context", "path", path)
			return Catalog{}, nil
		}
		return Catalog{}, fmt.Errorf("read price list %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return decodeYAML(raw)
	case ".json", "":
		return decodeJSON(raw)
	default:
		return Catalog{}, fmt.Errorf("unsupported price list format %q", ext)
	}
}

func decodeJSON(raw []byte) (Catalog, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Catalog{}, nil
	}
	if trimmed[0] == '[' {
		var list []Treatment
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Catalog{}, fmt.Errorf("decode price list: %w", err)
		}
		return Catalog{Treatments: list}, nil
	}
	var c Catalog
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode price list: %w", err)
	}
	return c, nil
}

func decodeYAML(raw []byte) (Catalog, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return Catalog{}, fmt.Errorf("decode price list: %w", err)
	}
	if len(root.Content) == 0 {
		return Catalog{}, nil
	}
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var list []Treatment
		if err := doc.Decode(&list); err != nil {
			return Catalog{}, fmt.Errorf("decode price list: %w", err)
		}
		return Catalog{Treatments: list}, nil
	}
	var c Catalog
	if err := doc.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode price list: %w", err)
	}
	return c, nil
}

// PromptText renders one line per treatment for the system prompt.
func (c Catalog) PromptText() string {
	if len(c.Treatments) == 0 {
		return "(daftar perawatan belum tersedia)"
	}
	var b strings.Builder
	for i, t := range c.Treatments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(t.Name))
		if cat := strings.TrimSpace(t.Category); cat != "" {
			b.WriteString(" [")
			b.WriteString(cat)
			b.WriteString("]")
		}
		if price := t.Price.String(); price != "" {
			b.WriteString(": ")
			b.WriteString(price)
		}
		if desc := strings.TrimSpace(t.Description); desc != "" {
			b.WriteString(". ")
			b.WriteString(desc)
		}
	}
	return b.String()
}
