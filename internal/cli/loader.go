package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/normstate/internal/compiler"
	"github.com/roach88/normstate/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all validation errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading schemas.
type LoadResult struct {
	Registry    *schema.Registry // nil if validation failed
	Definitions []compiler.Definition
	CUEValue    cue.Value
	FileCount   int
}

// LoadError is an error from loading schemas, with a CLI error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas loads and compiles the CUE schemas at path, a directory or a
// single .cue file.
//
// A nil result means nothing could be parsed. Otherwise errors holds
// compiler.ValidationError values: the first one in LoadModeFailFast, all
// of them in LoadModeCollectAll. Registry is set only when there are none.
func LoadSchemas(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schemas not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schemas: %v", err)}}
	}

	fileCount := 1
	if info.IsDir() {
		cueFiles, err := FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(cueFiles) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
		fileCount = len(cueFiles)
	}

	value, err := compiler.Load(path)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeLoadFailed)}
	}

	defs, err := compiler.ParseDefinitions(value)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeBuildFailed)}
	}

	result := &LoadResult{
		Definitions: defs,
		CUEValue:    value,
		FileCount:   fileCount,
	}

	if verrs := compiler.Validate(defs); len(verrs) > 0 {
		if mode == LoadModeFailFast {
			verrs = verrs[:1]
		}
		errs := make([]error, len(verrs))
		for i, verr := range verrs {
			errs[i] = verr
		}
		return result, errs
	}

	reg, err := compiler.Build(defs)
	if err != nil {
		return result, []error{convertCompileError(err, ErrCodeGeneric)}
	}
	result.Registry = reg
	return result, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position
// info. Errors without one get code.
func convertCompileError(err error, code string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field, code),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: code, Message: err.Error()}
}

// Error code constants, unified across all CLI commands. Schema validation
// codes (E2xx) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCommands    = "E007" // Commands file unreadable or invalid

	ErrCodeNoSchemas   = "E101" // No top-level schema field
	ErrCodeBadRelation = "E102" // Relation is neither a key nor a list
)

// MapFieldToErrorCode maps a compiler error field to an error code, or
// fallback when the field has no code of its own.
func MapFieldToErrorCode(field, fallback string) string {
	switch {
	case field == "schema":
		return ErrCodeNoSchemas
	case field == "cue":
		return ErrCodeBuildFailed
	case strings.Contains(field, ".relations."):
		return ErrCodeBadRelation
	default:
		return fallback
	}
}
