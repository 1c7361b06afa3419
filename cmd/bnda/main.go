// Package main provides the bnda CLI for inspecting and creating memory-mapped arrays.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/born-ml/ndarray/array"
	"github.com/born-ml/ndarray/expr"
	"github.com/born-ml/ndarray/foreign"
	"github.com/born-ml/ndarray/mapped"
	"github.com/born-ml/ndarray/tensor"
)

const version = "v0.1.0-dev"

func usage() {
	fmt.Println("bnda - strided arrays over memory-mapped files")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version                          Show version")
	fmt.Println("  inspect [-n N] FILE              Print dtype, shape, strides and leading values")
	fmt.Println("  create [-F] FILE DTYPE DIM...    Create a zero-filled array file")
	fmt.Println("  fill FILE VALUE                  Set every element of FILE to VALUE")
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("bnda %s\n", version)
	case "inspect":
		fs := flag.NewFlagSet("inspect", flag.ExitOnError)
		n := fs.Int("n", 8, "Number of leading values to print")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			log.Fatalf("usage: bnda inspect [-n N] FILE")
		}
		if err := inspect(fs.Arg(0), *n); err != nil {
			log.Fatalf("inspect: %v", err)
		}
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		colMajor := fs.Bool("F", false, "Use column-major (Fortran) layout")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() < 2 {
			log.Fatalf("usage: bnda create [-F] FILE DTYPE DIM...")
		}
		layout := tensor.RowMajor
		if *colMajor {
			layout = tensor.ColumnMajor
		}
		if err := create(fs.Arg(0), fs.Arg(1), fs.Args()[2:], layout); err != nil {
			log.Fatalf("create: %v", err)
		}
	case "fill":
		if len(os.Args) != 4 {
			log.Fatalf("usage: bnda fill FILE VALUE")
		}
		if err := fill(os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("fill: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

// openRuntime creates a runtime with default settings.
func openRuntime() (*mapped.Runtime, error) {
	return mapped.New(mapped.DefaultConfig())
}

func inspect(path string, n int) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	h, err := rt.Open(path, true)
	if err != nil {
		return err
	}
	defer rt.Release(h)

	desc, err := rt.Describe(h)
	if err != nil {
		return err
	}
	hdr, err := rt.Header(h)
	if err != nil {
		return err
	}

	fmt.Printf("file:        %s\n", path)
	fmt.Printf("created:     %s\n", hdr.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("dtype:       %s\n", desc.DType)
	fmt.Printf("flags:       %s\n", desc.Flags)

	switch desc.DType {
	case tensor.Float32:
		return describe[float32](rt, h, n)
	case tensor.Float64:
		return describe[float64](rt, h, n)
	case tensor.Int32:
		return describe[int32](rt, h, n)
	case tensor.Int64:
		return describe[int64](rt, h, n)
	case tensor.Uint8:
		return describe[uint8](rt, h, n)
	case tensor.Bool:
		return describe[bool](rt, h, n)
	default:
		return fmt.Errorf("unsupported dtype %s", desc.DType)
	}
}

func describe[T tensor.DType](rt foreign.Runtime, h foreign.Handle, n int) error {
	a, ok := array.Ensure[T](rt, h)
	if !ok {
		return array.Validate[T](rt, h)
	}
	defer a.Close()

	strides := a.Strides().Slice()
	fmt.Printf("shape:       %v\n", a.Shape())
	fmt.Printf("strides:     %v\n", strides)
	fmt.Printf("backstrides: %v\n", a.Backstrides().Slice())
	if l, ok := tensor.LayoutOf(a.Shape(), strides); ok {
		fmt.Printf("layout:      %s\n", l)
	} else {
		fmt.Printf("layout:      strided\n")
	}
	fmt.Printf("size:        %d\n", a.Size())

	values := a.Values()
	if len(values) > n {
		fmt.Printf("values:      %v ...\n", values[:n])
	} else {
		fmt.Printf("values:      %v\n", values)
	}
	return nil
}

func create(path, dtypeName string, dims []string, layout tensor.Layout) error {
	dtype, err := tensor.ParseDataType(dtypeName)
	if err != nil {
		return err
	}
	shape := make(tensor.Shape, len(dims))
	for i, d := range dims {
		v, err := strconv.Atoi(d)
		if err != nil {
			return fmt.Errorf("dimension %d: %w", i, err)
		}
		shape[i] = v
	}
	if err := shape.Validate(); err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	strides := shape.DefaultStrides(layout)
	byteStrides := make([]int, len(strides))
	for i, s := range strides {
		byteStrides[i] = s * dtype.Size()
	}
	h, err := rt.Create(path, dtype, shape, byteStrides)
	if err != nil {
		return err
	}
	rt.Release(h)

	fmt.Printf("created %s: %s%v (%s)\n", path, dtype, shape, layout)
	return nil
}

func fill(path, value string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	h, err := rt.Open(path, false)
	if err != nil {
		return err
	}
	defer rt.Release(h)

	desc, err := rt.Describe(h)
	if err != nil {
		return err
	}

	switch desc.DType {
	case tensor.Float32:
		return fillAs(rt, h, value, func(s string) (float32, error) {
			v, err := strconv.ParseFloat(s, 32)
			return float32(v), err
		})
	case tensor.Float64:
		return fillAs(rt, h, value, func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		})
	case tensor.Int32:
		return fillAs(rt, h, value, func(s string) (int32, error) {
			v, err := strconv.ParseInt(s, 10, 32)
			return int32(v), err
		})
	case tensor.Int64:
		return fillAs(rt, h, value, func(s string) (int64, error) {
			return strconv.ParseInt(s, 10, 64)
		})
	case tensor.Uint8:
		return fillAs(rt, h, value, func(s string) (uint8, error) {
			v, err := strconv.ParseUint(s, 10, 8)
			return uint8(v), err
		})
	case tensor.Bool:
		return fillAs(rt, h, value, strconv.ParseBool)
	default:
		return fmt.Errorf("unsupported dtype %s", desc.DType)
	}
}

func fillAs[T tensor.DType](rt *mapped.Runtime, h foreign.Handle, value string, parse func(string) (T, error)) error {
	v, err := parse(value)
	if err != nil {
		return fmt.Errorf("parse %q: %w", value, err)
	}
	a, err := array.Borrow[T](rt, h)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := expr.Evaluate[T](a, expr.Scalar(v)); err != nil {
		return err
	}
	if err := rt.Flush(h); err != nil {
		return err
	}
	fmt.Printf("filled %d elements with %v\n", a.Size(), v)
	return nil
}

func closeRuntime(rt *mapped.Runtime) {
	if err := rt.Close(); err != nil {
		log.Printf("close: %v", err)
	}
}
