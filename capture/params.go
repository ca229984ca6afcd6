package capture

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Parameter names shared by trigger files and queue rows. The commit document
// uses the same names, so re-extraction of a generated document yields the
// original values.
const (
	ParamInstrument   = "Instrument Name"
	ParamDataset      = "Dataset Name"
	ParamOperator     = "Operator (Username)"
	ParamShareName    = "Capture Share Name"
	ParamSubdirectory = "Capture Subfolder"
	ParamRunFinish    = "Run Finish UTC"
)

// RunFinishFormat - timestamp layout used in parameter documents, always UTC.
const RunFinishFormat = "2006-01-02 15:04:05"

// Param - one name/value row of a dataset parameter document.
type Param struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value,attr"`
}

// Params - dataset parameter document packet.
type Params struct {
	XMLName    xml.Name `xml:"Dataset"`
	Parameters []Param  `xml:"Parameter"`
}

// Get - ...
func (p *Params) Get(name string) string {
	for _, param := range p.Parameters {
		if param.Name == name {
			return param.Value
		}
	}
	return ""
}

// Set - replace or append a parameter value.
func (p *Params) Set(name, value string) {
	for i := range p.Parameters {
		if p.Parameters[i].Name == name {
			p.Parameters[i].Value = value
			return
		}
	}
	p.Parameters = append(p.Parameters, Param{Name: name, Value: value})
}

// XML - convert struct to an XML document.
func (p *Params) XML() (string, error) {
	bin, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(bin), nil
}

// FromXML - convert an XML document to struct.
func (p *Params) FromXML(doc string) error {
	return xml.Unmarshal([]byte(doc), p)
}

// RunFinish - parsed run-finish timestamp; zero time when not supplied.
func (p *Params) RunFinish() (time.Time, error) {
	raw := p.Get(ParamRunFinish)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.ParseInLocation(RunFinishFormat, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad run finish timestamp %q: %w", raw, err)
	}
	return ts, nil
}

// String representation
func (p *Params) String() string {
	return fmt.Sprintf("instrument=%s dataset=%s operator=%s",
		p.Get(ParamInstrument), p.Get(ParamDataset), p.Get(ParamOperator))
}
