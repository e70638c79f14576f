// gen_vm_expects generates top level wrappers for every vmTestCase with* and
// expect* method, so that test cases can share lists of them through
// vmTestCase.apply.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var pkgName = flag.String("package", "vm", "package name of the generated file")

type namedReader interface {
	io.ReadCloser
	Name() string
}

var (
	in  namedReader    = os.Stdin
	out io.WriteCloser = os.Stdout
)

func parseFlags() {
	flag.Parse()

	args := flag.Args()

	if len(args) > 0 {
		name := args[0]
		f, err := os.Open(name)
		if err != nil {
			log.Fatalf("failed to open %v: %v", name, err)
		}
		args = args[1:]
		in = f
	}

	if len(args) > 0 {
		name := args[0]
		f, err := os.Create(name)
		if err != nil {
			log.Fatalf("failed to create %v: %v", name, err)
		}
		args = args[1:]
		out = f
	}
}

func main() {
	ctx := context.Background()
	parseFlags()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	ready := make(chan struct{})

	eg.Go(func() error {
		gofmt := exec.CommandContext(ctx, "goimports")
		fmtPipe, err := gofmt.StdinPipe()
		if err != nil {
			return err
		}

		defer out.Close()
		gofmt.Stdout = out
		gofmt.Stderr = os.Stderr

		out = fmtPipe

		close(ready)
		if err := gofmt.Run(); err != nil {
			return fmt.Errorf("gofmt run failed: %w", err)
		}
		return nil
	})

	eg.Go(func() (rerr error) {
		select {
		case <-ctx.Done():
		case <-ready:
		}

		defer func() {
			if cerr := in.Close(); rerr == nil {
				rerr = cerr
			}
			if cerr := out.Close(); rerr == nil {
				rerr = cerr
			}
		}()

		return run(ctx)
	})

	if err := eg.Wait(); err != nil {
		log.Fatalln(err)
	}
}

// wrapperPrefixes are the vmTestCase method name prefixes that get wrappers.
var wrapperPrefixes = []string{"with", "expect"}

func run(ctx context.Context) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, in.Name(), in, 0)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(1024)
	fmt.Fprintf(&buf, "package %s\n\n", *pkgName)
	fmt.Fprintf(&buf, "// @generated from %s\n\n", in.Name())
	if args := flag.Args(); len(args) >= 2 {
		fmt.Fprintf(&buf, "//go:generate go run ../scripts/gen_vm_expects.go -package %s -- %s\n\n",
			*pkgName, strings.Join(args, " "))
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || !isTestCaseBuilder(fn) {
			continue
		}
		for _, prefix := range wrapperPrefixes {
			what := strings.TrimPrefix(fn.Name.Name, prefix)
			if what == fn.Name.Name || what == "" {
				continue
			}
			if err := writeWrapper(&buf, fset, prefix, what, fn.Type.Params); err != nil {
				return fmt.Errorf("%v: %w", fset.Position(fn.Pos()), err)
			}
			break
		}

		if _, err := buf.WriteTo(out); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if buf.Len() > 0 {
		_, err = buf.WriteTo(out)
	}
	return err
}

// isTestCaseBuilder matches methods of the form
// func (vmt vmTestCase) name(...) vmTestCase.
func isTestCaseBuilder(fn *ast.FuncDecl) bool {
	isTestCase := func(fl *ast.FieldList) bool {
		if fl == nil || len(fl.List) != 1 || len(fl.List[0].Names) > 1 {
			return false
		}
		id, ok := fl.List[0].Type.(*ast.Ident)
		return ok && id.Name == "vmTestCase"
	}
	return isTestCase(fn.Recv) && isTestCase(fn.Type.Results)
}

// writeWrapper writes a function that returns a closure over params, which
// calls the named builder method on the test case that it is given.
func writeWrapper(buf *bytes.Buffer, fset *token.FileSet, prefix, what string, params *ast.FieldList) error {
	var decl, call []string
	for _, field := range params.List {
		if len(field.Names) == 0 {
			return errors.New("every parameter needs a name")
		}
		var typ strings.Builder
		if err := printer.Fprint(&typ, fset, field.Type); err != nil {
			return err
		}
		_, variadic := field.Type.(*ast.Ellipsis)
		for i, name := range field.Names {
			if i == len(field.Names)-1 {
				decl = append(decl, name.Name+" "+typ.String())
			} else {
				decl = append(decl, name.Name)
			}
			if variadic {
				call = append(call, name.Name+"...")
			} else {
				call = append(call, name.Name)
			}
		}
	}

	fmt.Fprintf(buf, "func %sVM%s(%s) func(vmTestCase) vmTestCase {\n", prefix, what, strings.Join(decl, ", "))
	fmt.Fprintf(buf, "\treturn func(vmt vmTestCase) vmTestCase {\n")
	fmt.Fprintf(buf, "\t\treturn vmt.%s%s(%s)\n", prefix, what, strings.Join(call, ", "))
	fmt.Fprintf(buf, "\t}\n}\n\n")
	return nil
}
