package annotate

import "errors"

// ErrAnnotationParse reports an inference response that was not valid JSON
// per the entity schema. The annotator recovers from it with local
// extraction; it never reaches callers of Annotate.
var ErrAnnotationParse = errors.New("inference response does not match the entity schema")
