// Package z3 converts clari expressions to and from Z3 terms through the Z3 C
// API and exposes a thin satisfiability pass-through.
package z3

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unsafe"

	"github.com/benbjohnson/clari"
	"github.com/pkg/errors"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
*/
import "C"

// Config holds the settings of a Backend.
type Config struct {
	// Per-check solver timeout. Zero means no timeout.
	Timeout time.Duration

	// Destination of log records. A nil logger discards output.
	Logger *slog.Logger
}

// Context represents a Z3 context object that is used for constructing
// expressions. A Context is not safe for concurrent use.
type Context struct {
	raw C.Z3_context

	// Rounding applied to the next floating point operation. Z3 takes the
	// rounding mode as an operand so it is materialized on every use.
	rm clari.Rounding
}

// NewContext returns a new instance of Context.
func NewContext(config Config) *Context {
	cfg := C.Z3_mk_config()
	defer C.Z3_del_config(cfg)

	if config.Timeout > 0 {
		setParam(cfg, "timeout", strconv.FormatInt(config.Timeout.Milliseconds(), 10))
	}

	raw := C.Z3_mk_context(cfg)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw}
}

func setParam(cfg C.Z3_config, key, value string) {
	ckey, cvalue := C.CString(key), C.CString(value)
	defer C.free(unsafe.Pointer(ckey))
	defer C.free(unsafe.Pointer(cvalue))
	C.Z3_set_param_value(cfg, ckey, cvalue)
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return nil
}

// err returns the error for the last API call. Returns nil if last call was successful.
func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

// SetRoundingMode sets the rounding applied to subsequent floating point
// operations.
func (ctx *Context) SetRoundingMode(mode clari.Rounding) {
	ctx.rm = mode
}

// RoundingMode returns the rounding applied to floating point operations.
func (ctx *Context) RoundingMode() clari.Rounding {
	return ctx.rm
}

// makeRoundingMode returns the Z3 term for the current rounding mode.
func (ctx *Context) makeRoundingMode() (C.Z3_ast, error) {
	switch ctx.rm {
	case clari.RoundNearestTiesEven:
		return C.Z3_mk_fpa_rne(ctx.raw), ctx.err("Z3_mk_fpa_rne")
	case clari.RoundNearestTiesAway:
		return C.Z3_mk_fpa_rna(ctx.raw), ctx.err("Z3_mk_fpa_rna")
	case clari.RoundTowardPositive:
		return C.Z3_mk_fpa_rtp(ctx.raw), ctx.err("Z3_mk_fpa_rtp")
	case clari.RoundTowardNegative:
		return C.Z3_mk_fpa_rtn(ctx.raw), ctx.err("Z3_mk_fpa_rtn")
	case clari.RoundTowardZero:
		return C.Z3_mk_fpa_rtz(ctx.raw), ctx.err("Z3_mk_fpa_rtz")
	default:
		return nil, errors.Wrapf(clari.ErrBadVariant, "rounding mode %d", ctx.rm)
	}
}

func (ctx *Context) makeTrue() (C.Z3_ast, error) {
	return C.Z3_mk_true(ctx.raw), ctx.err("Z3_mk_true")
}

func (ctx *Context) makeFalse() (C.Z3_ast, error) {
	return C.Z3_mk_false(ctx.raw), ctx.err("Z3_mk_false")
}

func (ctx *Context) makeBVSort(width uint) (C.Z3_sort, error) {
	return C.Z3_mk_bv_sort(ctx.raw, C.uint(width)), ctx.err("Z3_mk_bv_sort")
}

func (ctx *Context) makeFPSort(width uint) (C.Z3_sort, error) {
	switch width {
	case clari.Width32:
		return C.Z3_mk_fpa_sort_32(ctx.raw), ctx.err("Z3_mk_fpa_sort_32")
	case clari.Width64:
		return C.Z3_mk_fpa_sort_64(ctx.raw), ctx.err("Z3_mk_fpa_sort_64")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "floating point width %d", width)
	}
}

// makeSort returns the Z3 sort for expressions of the given sort and size.
func (ctx *Context) makeSort(sort clari.Sort, size uint) (C.Z3_sort, error) {
	switch sort {
	case clari.SortBool:
		return C.Z3_mk_bool_sort(ctx.raw), ctx.err("Z3_mk_bool_sort")
	case clari.SortBV:
		return ctx.makeBVSort(size)
	case clari.SortFP:
		return ctx.makeFPSort(size)
	case clari.SortString:
		return C.Z3_mk_string_sort(ctx.raw), ctx.err("Z3_mk_string_sort")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "%s sort", sort)
	}
}

func (ctx *Context) makeUint64(width uint, value uint64) (C.Z3_ast, error) {
	t, err := ctx.makeBVSort(width)
	if err != nil {
		return nil, err
	}
	return C.Z3_mk_unsigned_int64(ctx.raw, C.uint64_t(value), t), ctx.err("Z3_mk_unsigned_int64")
}

// makeNumeral returns a bit-vector numeral from its decimal representation.
func (ctx *Context) makeNumeral(width uint, decimal string) (C.Z3_ast, error) {
	t, err := ctx.makeBVSort(width)
	if err != nil {
		return nil, err
	}
	cs := C.CString(decimal)
	defer C.free(unsafe.Pointer(cs))
	return C.Z3_mk_numeral(ctx.raw, cs, t), ctx.err("Z3_mk_numeral")
}

func (ctx *Context) makeString(s string) (C.Z3_ast, error) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.Z3_mk_lstring(ctx.raw, C.uint(len(s)), cs), ctx.err("Z3_mk_lstring")
}

func (ctx *Context) makeConst(name string, t C.Z3_sort) (C.Z3_ast, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	sym := C.Z3_mk_string_symbol(ctx.raw, cname)
	if err := ctx.err("Z3_mk_string_symbol"); err != nil {
		return nil, err
	}
	return C.Z3_mk_const(ctx.raw, sym, t), ctx.err("Z3_mk_const")
}

func (ctx *Context) bvSize(expr C.Z3_ast) (uint, error) {
	t := C.Z3_get_sort(ctx.raw, expr)
	if err := ctx.err("Z3_get_sort"); err != nil {
		return 0, err
	}
	sz := uint(C.Z3_get_bv_sort_size(ctx.raw, t))
	return sz, ctx.err("Z3_get_bv_sort_size")
}

func (ctx *Context) astToString(ast C.Z3_ast) string {
	return C.GoString(C.Z3_ast_to_string(ctx.raw, ast))
}

func (ctx *Context) modelToString(model C.Z3_model) string {
	return C.GoString(C.Z3_model_to_string(ctx.raw, model))
}

// AST is a Z3 term owned by a Backend's context.
type AST struct {
	ctx *Context
	raw C.Z3_ast
}

// String returns the SMT-LIB2 rendering of the term.
func (a AST) String() string {
	if a.ctx == nil || a.raw == nil {
		return "<nil>"
	}
	return a.ctx.astToString(a.raw)
}

// Error represents an error from the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}

// Possible error codes.
const (
	ErrorCodeOK = iota
	ErrorCodeSortError
	ErrorCodeIOB
	ErrorCodeInvalidArg
	ErrorCodeParserError
	ErrorCodeNoParser
	ErrorCodeInvalidPattern
	ErrorCodeMemoutFail
	ErrorCodeFileAccessError
	ErrorCodeInternalFatal
	ErrorCodeInvalidUsage
	ErrorCodeDecRefError
	ErrorCodeException
)

// Stats holds counters for a Backend.
type Stats struct {
	ConvertN  int
	AbstractN int
	SolveN    int
	SolveTime time.Duration
}
