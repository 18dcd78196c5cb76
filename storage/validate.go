package storage

import "github.com/parquedb/parquedb/core"

// ValidatePath rejects empty paths and paths containing ".." segments,
// per spec §4.1's path-safety requirement.
func ValidatePath(op, path string) error {
	if path == "" {
		return core.NewErrorf(core.CodeInvalidPath, op, path, "path must not be empty")
	}
	depth := 0
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			seg := path[start:i]
			if seg == ".." {
				return core.NewErrorf(core.CodeInvalidPath, op, path, "path must not contain .. segments")
			}
			if seg != "" {
				depth++
			}
			start = i + 1
		}
	}
	if depth == 0 {
		return core.NewErrorf(core.CodeInvalidPath, op, path, "path must not be empty")
	}
	return nil
}

// ValidateRange rejects negative offsets and an end before start.
func ValidateRange(op, path string, start, end int64) error {
	if start < 0 {
		return core.NewErrorf(core.CodeInvalidRange, op, path, "range start %d must not be negative", start)
	}
	if end < start {
		return core.NewErrorf(core.CodeInvalidRange, op, path, "range end %d must not be before start %d", end, start)
	}
	return nil
}

// ValidateBuffer rejects a nil data buffer where a body is required.
func ValidateBuffer(op, path string, data []byte) error {
	if data == nil {
		return core.NewErrorf(core.CodeInvalidArgument, op, path, "data must not be nil")
	}
	return nil
}

// ValidatePartNumber rejects multipart part numbers outside [1, 10000],
// the S3 multipart-upload limit and the bound spec §4.1 adopts generally.
func ValidatePartNumber(op, path string, part int) error {
	if part < 1 || part > 10000 {
		return core.NewErrorf(core.CodeInvalidArgument, op, path, "part number %d out of range [1, 10000]", part)
	}
	return nil
}
