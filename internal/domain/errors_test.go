package domain

import (
	"errors"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:      "longitude",
		Value:      200.0,
		Constraint: "[-180, 180]",
		Message:    "longitude must be between -180 and 180",
	}

	got := err.Error()
	if got == "" {
		t.Error("Error() should not return empty string")
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}
}

func TestFilesystemError(t *testing.T) {
	tests := []struct {
		name string
		err  *FilesystemError
	}{
		{
			name: "stat failure",
			err:  &FilesystemError{Op: "stat", Path: "a/b.jpg", Err: errors.New("permission denied")},
		},
		{
			name: "backslash segment",
			err:  &FilesystemError{Op: "relPath", Path: `a\b.jpg`, Err: errors.New("contains backslash segment")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got == "" {
				t.Error("Error() should not return empty string")
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("Unwrap should return the underlying error")
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	err := &StoreError{Op: "insert", Err: errors.New("constraint violation")}

	if err.Error() == "" {
		t.Error("Error() should not return empty string")
	}
	if !errors.Is(err, err.Err) {
		t.Error("Unwrap should return the underlying error")
	}
}

func TestParseError(t *testing.T) {
	base := errors.New("unexpected EOF reading IFD")
	err := &ParseError{Path: "a/b/scan.tif", Err: base}

	if err.Error() == "" {
		t.Error("Error() should not return empty string")
	}
	if !errors.Is(err, base) {
		t.Error("Unwrap should return the underlying error")
	}
}

func TestArgumentError(t *testing.T) {
	err := &ArgumentError{Field: "maxRecursionDepth", Message: "must not be negative"}

	if err.Error() == "" {
		t.Error("Error() should not return empty string")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ArgumentError should unwrap to ErrInvalidInput")
	}
}

func TestAppError(t *testing.T) {
	base := errors.New("directory row missing at parent prefix")
	err := &AppError{Operation: "move", Err: base}

	if err.Error() == "" {
		t.Error("Error() should not return empty string")
	}
	if !errors.Is(err, base) {
		t.Error("Unwrap should return the underlying error")
	}
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name string
		err  *StorageError
	}{
		{
			name: "with key",
			err:  &StorageError{Operation: "download", Key: "a/b/img.jpg", Err: errors.New("network error")},
		},
		{
			name: "without key",
			err:  &StorageError{Operation: "list", Err: errors.New("access denied")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got == "" {
				t.Error("Error() should not return empty string")
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("Unwrap should return the underlying error")
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "thumbnail.cacheDir", Message: "must be an absolute path"}

	got := err.Error()
	if got == "" {
		t.Error("Error() should not return empty string")
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ConfigError should unwrap to ErrInvalidInput")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"ErrNotWorkingTree", ErrNotWorkingTree, ErrNotFound},
		{"ErrEntryNotFound", ErrEntryNotFound, ErrNotFound},
		{"ErrAlreadyTree", ErrAlreadyTree, ErrInvalidInput},
		{"ErrNoMatch", ErrNoMatch, ErrNotFound},
		{"ErrCanceled", ErrCanceled, ErrAborted},
		{"ErrInvariant", ErrInvariant, ErrAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("%s should wrap %v", tt.name, tt.wantErr)
			}
		})
	}
}
