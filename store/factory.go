package store

import (
	"context"
	"fmt"
	"time"

	"pharmacy/domain"
	"pharmacy/logger"
)

// Options carries the settings NewSource needs for every kind.
type Options struct {
	File     string
	URL      string
	Timeout  time.Duration
	Insecure bool
	Logger   *logger.Logger
}

// NewSource constructs a domain.ProductSource by kind: "http", "memory" or "file".
// A memory source is seeded from Options.File when one is given, without writing back.
func NewSource(kind string, opts Options) (domain.ProductSource, error) {
	switch kind {
	case "http":
		if opts.URL == "" {
			return nil, fmt.Errorf("product service url required for http source")
		}
		httpOpts := []HTTPOption{WithInsecureTLS(opts.Insecure)}
		if opts.Timeout > 0 {
			httpOpts = append(httpOpts, WithTimeout(opts.Timeout))
		}
		if opts.Logger != nil {
			httpOpts = append(httpOpts, WithLogger(opts.Logger))
		}
		return NewHTTPSource(opts.URL, httpOpts...)
	case "memory", "mem":
		if opts.File == "" {
			return NewMemorySource()
		}
		fs, err := NewFileSource(opts.File)
		if err != nil {
			return nil, err
		}
		products, err := fs.List(context.Background())
		if err != nil {
			return nil, err
		}
		return NewMemorySource(products...)
	case "file":
		if opts.File == "" {
			return nil, fmt.Errorf("file path required for file source")
		}
		return NewFileSource(opts.File)
	default:
		return nil, fmt.Errorf("unknown source kind: %s", kind)
	}
}
