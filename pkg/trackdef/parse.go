package trackdef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
)

type rangeData struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end"   yaml:"end"`
}

// Parse decodes a definition document. The format is picked by the file
// extension of name (.json, .yaml, .yml).
// Sectors keep the order of the document.
//
//	{"Name": "Spa", "TrackId": 163, "Sectors": {"S1": {"start": 0, "end": 0.3}}}
func Parse(name string, data []byte) (*Definition, error) {
	var (
		d   *Definition
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		d, err = parseJSON(data)
	case ".yaml", ".yml":
		d, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	d.Source = SourceFile
	if len(d.Sectors) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSectors)
	}
	return d, nil
}

//nolint:tagliatelle // file format
type jsonDoc struct {
	Name    string          `json:"Name"`
	TrackID int             `json:"TrackId"`
	Sectors json.RawMessage `json:"Sectors"`
}

func parseJSON(data []byte) (*Definition, error) {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	ret := &Definition{Name: doc.Name, TrackID: doc.TrackID}
	if len(doc.Sectors) == 0 || string(doc.Sectors) == "null" {
		return ret, nil
	}
	// walk the tokens, a map would lose the order of the sectors
	dec := json.NewDecoder(bytes.NewReader(doc.Sectors))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("sectors must be an object: %w", ErrUnknownFormat)
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v: %w", tok, ErrUnknownFormat)
		}
		var r rangeData
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("sector %q: %w", key, err)
		}
		ret.Sectors = append(ret.Sectors, sector.Range{Name: key, Start: r.Start, End: r.End})
	}
	return ret, nil
}

func parseYAML(data []byte) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	ret := &Definition{}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return ret, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document must be a mapping: %w", ErrUnknownFormat)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var err error
		switch strings.ToLower(key.Value) {
		case "name":
			err = val.Decode(&ret.Name)
		case "trackid":
			err = val.Decode(&ret.TrackID)
		case "sectors":
			ret.Sectors, err = yamlSectors(val)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key.Value, err)
		}
	}
	return ret, nil
}

func yamlSectors(n *yaml.Node) ([]sector.Range, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("sectors must be a mapping: %w", ErrUnknownFormat)
	}
	ret := make([]sector.Range, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var r rangeData
		if err := n.Content[i+1].Decode(&r); err != nil {
			return nil, fmt.Errorf("sector %q: %w", n.Content[i].Value, err)
		}
		ret = append(ret, sector.Range{Name: n.Content[i].Value, Start: r.Start, End: r.End})
	}
	return ret, nil
}

// Marshal encodes d as a JSON document understood by Parse.
func Marshal(d *Definition) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	name, _ := json.Marshal(d.Name)
	fmt.Fprintf(&buf, "  \"Name\": %s,\n", name)
	if d.TrackID > 0 {
		fmt.Fprintf(&buf, "  \"TrackId\": %d,\n", d.TrackID)
	}
	buf.WriteString("  \"Sectors\": {")
	for i, s := range d.Sectors {
		if i > 0 {
			buf.WriteString(",")
		}
		key, _ := json.Marshal(s.Name)
		r, err := json.Marshal(rangeData{Start: s.Start, End: s.End})
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "\n    %s: %s", key, r)
	}
	buf.WriteString("\n  }\n}\n")
	return buf.Bytes(), nil
}
