package dfxml

import (
	"encoding/xml"
	"errors"
	"io"
)

// ReadPartitionSystems decodes every <partitionsystem> element of a DFXML
// document.
func ReadPartitionSystems(r io.Reader) ([]PartitionSystem, error) {
	dec := xml.NewDecoder(r)

	var systems []PartitionSystem
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "partitionsystem" {
			var ps PartitionSystem
			if err := dec.DecodeElement(&ps, &start); err != nil {
				return nil, err
			}
			systems = append(systems, ps)
		}
	}
	return systems, nil
}
