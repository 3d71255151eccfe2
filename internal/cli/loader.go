package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/exprtrace/internal/compiler"
	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
)

// LoadMode controls how errors are handled during tree loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the trees loaded from a directory.
type LoadResult struct {
	Trees     []compiler.Tree
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during tree loading.
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

// LoadTrees loads the CUE package in dir and compiles every entry of its
// "tree" struct, ordered by name.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadTrees(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("trees directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing trees directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}

	treesVal := value.LookupPath(cue.ParsePath("tree"))
	if !treesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no trees found in CUE files"}}
	}
	iter, err := treesVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating trees: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		name := iter.Selector().String()
		t, compileErr := compiler.CompileNamedTree(name, iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "tree."+name))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Trees = append(result.Trees, t)
	}
	sort.Slice(result.Trees, func(i, j int) bool { return result.Trees[i].Name < result.Trees[j].Name })

	if len(result.Trees) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no trees found in CUE files"})
	}
	return result, errs
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

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compile error to an error code by the last
// element of its field path.
func MapFieldToErrorCode(err *compiler.CompileError) string {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return ErrCodeParse
	}
	if errors.Is(err, expr.ErrTypeMismatch) {
		return ErrCodeInvalidType
	}

	field := err.Field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch field {
	case "source":
		return ErrCodeParse
	case "kind":
		return ErrCodeUnknownKind
	case "type":
		return ErrCodeInvalidType
	case "method":
		return ErrCodeUnknownMethod
	case "cue":
		return ErrCodeBuildFailed
	default:
		if strings.Contains(err.Message, "floats are not supported") {
			return ErrCodeInvalidType
		}
		return ErrCodeInvalidNode
	}
}

// readSource returns src, or the contents of stdin when src is "-".
func readSource(src string, stdin io.Reader) (string, error) {
	if src != "-" {
		return src, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read source from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
