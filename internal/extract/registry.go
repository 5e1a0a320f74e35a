package extract

import (
	"fmt"
	"strings"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// Registry keeps a mapping from document formats to their parsers.
type Registry struct {
	parsers map[domain.FileFormat]ports.DocumentParser
}

// NewRegistry builds a registry pre-populated with parsers.
func NewRegistry(parsers ...ports.DocumentParser) *Registry {
	r := &Registry{parsers: map[domain.FileFormat]ports.DocumentParser{}}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a parser implementation.
func (r *Registry) Register(parser ports.DocumentParser) {
	if parser == nil {
		return
	}
	if r.parsers == nil {
		r.parsers = map[domain.FileFormat]ports.DocumentParser{}
	}
	r.parsers[normalizeFormat(parser.Format())] = parser
}

// Resolve returns a parser by format or an error if it is absent.
func (r *Registry) Resolve(format domain.FileFormat) (ports.DocumentParser, error) {
	if r != nil {
		if parser, ok := r.parsers[normalizeFormat(format)]; ok {
			return parser, nil
		}
	}
	return nil, fmt.Errorf("no parser registered for format %q", format)
}

func normalizeFormat(f domain.FileFormat) domain.FileFormat {
	return domain.FileFormat(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(string(f)), ".")))
}
