package potential

import "fmt"

// Tags carries KIM-style provenance metadata for a potential. All fields are
// optional; the ones with restricted vocabularies are checked in validate.
type Tags struct {
	Title                 string     `yaml:"title,omitempty"`
	ContentOrigin         string     `yaml:"content_origin,omitempty"`
	ContentOtherLocations []string   `yaml:"content_other_locations,omitempty"`
	DataMethod            string     `yaml:"data_method,omitempty"`
	Description           string     `yaml:"description,omitempty"`
	Developer             []string   `yaml:"developer,omitempty"`
	Disclaimer            string     `yaml:"disclaimer,omitempty"`
	GenerationMethod      string     `yaml:"generation_method,omitempty"`
	Properties            []string   `yaml:"properties,omitempty"`
	PublicationYear       int        `yaml:"publication_year,omitempty"`
	SourceCitations       []Citation `yaml:"source_citations,omitempty"`
}

// Citation points at the publication a potential was parametrized in.
type Citation struct {
	Abstract  string `yaml:"abstract,omitempty"`
	Author    string `yaml:"author,omitempty"`
	DOI       string `yaml:"doi,omitempty"`
	Journal   string `yaml:"journal,omitempty"`
	Pages     string `yaml:"pages,omitempty"`
	RecordKey string `yaml:"recordkey,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Volume    string `yaml:"volume,omitempty"`
	Year      int    `yaml:"year,omitempty"`
}

var dataMethods = map[string]bool{
	"":            true,
	"experiment":  true,
	"computation": true,
	"unknown":     true,
}

func (t *Tags) validate() error {
	if !dataMethods[t.DataMethod] {
		return fmt.Errorf("potential: data_method %q is not one of experiment, computation, unknown", t.DataMethod)
	}
	if t.PublicationYear < 0 {
		return fmt.Errorf("potential: negative publication_year %d", t.PublicationYear)
	}
	return nil
}
