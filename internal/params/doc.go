// Package params turns command-line label inputs into label maps.
//
// Labels come from two places:
//   - --labels key=value flags, parsed by ParseKeyValuePairs
//   - --labels-file files in .env format, read by ReadLabelFiles
//
// Resolve merges both, flags taking precedence over files, and files
// listed later taking precedence over earlier ones.
//
// # Example Usage
//
//	lbls, err := params.Resolve([]string{"labels.env"}, []string{"team=variants"})
//	if err != nil {
//	    return fmt.Errorf("invalid labels: %w", err)
//	}
package params
