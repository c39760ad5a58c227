/*
Package importer converts documents produced by different tools into
envelopes and back. Formats are tried in a fixed order, the first parser
accepting the document wins.
*/
package importer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
)

// ErrUnknownFormat is returned when no parser accepts the document.
var ErrUnknownFormat = errors.New("unknown document format")

// Format names.
const (
	FormatEnvelope = "envelope"
	FormatCkbCli   = "ckb-cli"
)

// Parser decodes a document of one particular format.
type Parser struct {
	Name  string
	Parse func(data []byte) (*envelope.Envelope, error)
}

// Parsers lists supported formats in the order they're tried.
var Parsers = []Parser{
	{Name: FormatEnvelope, Parse: ParseEnvelope},
	{Name: FormatCkbCli, Parse: ParseCkbCli},
}

// Import decodes the document with the first parser accepting it and returns
// the envelope along with the format name.
func Import(data []byte) (*envelope.Envelope, string, error) {
	var errs []error
	for _, p := range Parsers {
		e, err := p.Parse(data)
		if err == nil {
			return e, p.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}
	return nil, "", fmt.Errorf("%w: %w", ErrUnknownFormat, errors.Join(errs...))
}

// ParseEnvelope decodes the native envelope JSON.
func ParseEnvelope(data []byte) (*envelope.Envelope, error) {
	e := new(envelope.Envelope)
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ExportEnvelope returns the native envelope JSON.
func ExportEnvelope(e *envelope.Envelope) ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
