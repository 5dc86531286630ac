package bagidx

import (
	"fmt"

	"github.com/bagidx/bagidx/hashbucket"
	"github.com/bagidx/bagidx/trigram"
)

// Merge combines the input index files into one at output. All inputs must
// have been written with the same config; the engine is chosen from the
// first input's footer.
func Merge(output string, inputs []string, optFns ...Option) error {
	if len(inputs) == 0 {
		return ErrEmptyIndex
	}
	o := applyOptions(optFns)

	config, err := ReadConfig(inputs[0], optFns...)
	if err != nil {
		return err
	}

	switch config.Type() {
	case hashbucket.TypeName:
		readers := make([]*hashbucket.Reader, 0, len(inputs))
		defer func() {
			for _, r := range readers {
				r.Close()
			}
		}()
		for _, path := range inputs {
			r, err := hashbucket.Open(path, o.hashOptions()...)
			if err != nil {
				return err
			}
			readers = append(readers, r)
		}
		return hashbucket.Merge(output, readers, o.hashOptions()...)

	case trigram.TypeName:
		readers := make([]*trigram.Reader, 0, len(inputs))
		defer func() {
			for _, r := range readers {
				r.Close()
			}
		}()
		for _, path := range inputs {
			r, err := trigram.Open(path, o.trigramOptions()...)
			if err != nil {
				return err
			}
			readers = append(readers, r)
		}
		return trigram.Merge(output, readers, o.trigramOptions()...)

	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown index type %q", config.Type())}
	}
}
