package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/law-makers/profilefeed/pkg/models"
)

// WriteJSON writes the payload to w, indented when pretty is set.
func WriteJSON(w io.Writer, payload *models.Payload, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}

// SaveJSON writes an indented JSON export of the payload to filepath.
func SaveJSON(payload *models.Payload, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteJSON(file, payload, true); err != nil {
		return err
	}
	return file.Close()
}
